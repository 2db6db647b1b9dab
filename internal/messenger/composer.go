package messenger

import (
	"context"
	"strings"
	"sync"
)

// Composer 输入框：持有草稿，发送失败时保留草稿以便重试
type Composer struct {
	window *WindowManager

	mu    sync.Mutex
	draft string
}

func NewComposer(window *WindowManager) *Composer {
	return &Composer{window: window}
}

func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// CanSubmit 草稿为空或全是空白时禁止提交
func (c *Composer) CanSubmit() bool {
	return strings.TrimSpace(c.Draft()) != ""
}

func (c *Composer) Submit(ctx context.Context) (*Message, error) {
	draft := c.Draft()
	if strings.TrimSpace(draft) == "" {
		return nil, ErrEmptyMessage
	}

	msg, err := c.window.SendMessage(ctx, draft)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.draft == draft {
		c.draft = ""
	}
	c.mu.Unlock()
	return msg, nil
}
