package scraper

import (
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"tribefeed/pkg/log"
)

// Selectors are the CSS selectors used to read a rendered x.com page.
type Selectors struct {
	TweetContainer string
	TweetText      string
	Timestamp      string
	AuthorName     string
	AuthorAvatar   string
	VerifiedBadge  string
	Protected      string
}

// DefaultSelectors match the x.com markup at the time of writing.
func DefaultSelectors() Selectors {
	return Selectors{
		TweetContainer: `article[data-testid="tweet"]`,
		TweetText:      `[data-testid="tweetText"]`,
		Timestamp:      `time[datetime]`,
		AuthorName:     `[data-testid="User-Name"] span`,
		AuthorAvatar:   `[data-testid="Tweet-User-Avatar"]`,
		VerifiedBadge:  `[data-testid="icon-verified"]`,
		Protected:      `[data-testid="emptyState"]`,
	}
}

// selectorFile is the YAML layout of the selectors file.
type selectorFile struct {
	Tweet struct {
		Container string `yaml:"container"`
		Text      string `yaml:"text"`
		Timestamp string `yaml:"timestamp"`
	} `yaml:"tweet"`
	Author struct {
		Name     string `yaml:"name"`
		Avatar   string `yaml:"avatar"`
		Verified string `yaml:"verified_badge"`
	} `yaml:"author"`
	Page struct {
		Protected string `yaml:"protected"`
	} `yaml:"page"`
}

// SelectorConfig holds the current Selectors and reloads them when the
// file changes, so markup changes on x.com can be fixed without a restart.
type SelectorConfig struct {
	path string

	mu      sync.RWMutex
	current Selectors
	modTime time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// StaticSelectors wraps fixed selectors without a backing file.
func StaticSelectors(s Selectors) *SelectorConfig {
	return &SelectorConfig{current: s, stop: make(chan struct{})}
}

// LoadSelectors reads path and starts watching it every interval.
// Keys missing from the file fall back to DefaultSelectors.
func LoadSelectors(path string, interval time.Duration) (*SelectorConfig, error) {
	c := &SelectorConfig{path: path, stop: make(chan struct{})}
	if err := c.reload(); err != nil {
		return nil, err
	}
	if interval > 0 {
		go c.watch(interval)
	}
	return c, nil
}

// Current returns a snapshot of the selectors.
func (c *SelectorConfig) Current() Selectors {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Close stops the file watcher.
func (c *SelectorConfig) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *SelectorConfig) reload() error {
	info, err := os.Stat(c.path)
	if err != nil {
		return errors.Wrapf(err, "stat selectors %s", c.path)
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return errors.Wrapf(err, "read selectors %s", c.path)
	}

	var raw selectorFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.Wrapf(err, "parse selectors %s", c.path)
	}

	s := DefaultSelectors()
	override(&s.TweetContainer, raw.Tweet.Container)
	override(&s.TweetText, raw.Tweet.Text)
	override(&s.Timestamp, raw.Tweet.Timestamp)
	override(&s.AuthorName, raw.Author.Name)
	override(&s.AuthorAvatar, raw.Author.Avatar)
	override(&s.VerifiedBadge, raw.Author.Verified)
	override(&s.Protected, raw.Page.Protected)

	c.mu.Lock()
	c.current = s
	c.modTime = info.ModTime()
	c.mu.Unlock()
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *SelectorConfig) watch(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			info, err := os.Stat(c.path)
			if err != nil {
				continue
			}
			c.mu.RLock()
			changed := info.ModTime().After(c.modTime)
			c.mu.RUnlock()
			if !changed {
				continue
			}
			if err := c.reload(); err != nil {
				log.GlobalWarn("selector reload failed, keeping previous selectors", "path", c.path, "error", err)
				continue
			}
			log.GlobalInfo("selectors reloaded", "path", c.path)
		}
	}
}
