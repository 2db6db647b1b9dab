package handler

import (
	"GameZone/internal/api/config"
	"GameZone/internal/api/dto"
	"GameZone/internal/messenger"
	"GameZone/internal/pkg/consts"
	"GameZone/internal/pkg/live"
	"GameZone/internal/pkg/response"
	"GameZone/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	maxErrorFrames = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WsHandler 每个连接一个私信 Session
type WsHandler struct {
	directory messenger.Directory
	messages  messenger.MessageStore
	status    messenger.StatusStore
	listener  live.Listener
	cfg       messenger.SessionConfig

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

func NewWsHandler(cfg config.IMConfig, directory messenger.Directory, messages messenger.MessageStore, status messenger.StatusStore, listener live.Listener) *WsHandler {
	return &WsHandler{
		directory: directory,
		messages:  messages,
		status:    status,
		listener:  listener,
		cfg: messenger.SessionConfig{
			InitialLimit:     cfg.InitialLimit,
			LimitStep:        cfg.LimitStep,
			WriteBackTimeout: time.Duration(cfg.WriteBackTimeout) * time.Second,
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Connect 鉴权由 AuthMiddleware 完成，握手通过 token 查询参数携带
func (s *WsHandler) Connect(c *gin.Context) {
	userID := strconv.FormatUint(c.GetUint64("user_id"), 10)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WarnContext(c.Request.Context(), "WS 协议升级失败", "err", err)
		return
	}

	// 连接的生命周期独立于 HTTP 请求，保留 trace_id
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	client := newWsClient(conn)
	s.track(client, true)

	session := messenger.NewSession(userID, s.directory, s.messages, s.status, client, s.cfg)
	go client.writeLoop(ctx)

	log.InfoContext(ctx, "用户 WS 连接已建立", "userID", userID)
	client.serial(func() {
		if err := session.Start(ctx); err != nil {
			client.pushError(ctx, err, "")
		}
	})
	stopFollowing := s.watchFollowing(ctx, userID, client, session)

	client.readLoop(ctx, session)

	cancel()
	stopFollowing()
	session.Close()
	<-client.done
	_ = conn.Close()
	s.track(client, false)
	log.InfoContext(ctx, "用户 WS 连接已断开", "userID", userID)
}

// Shutdown 关闭所有连接，读循环随之退出
func (s *WsHandler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		_ = client.conn.Close()
	}
}

func (s *WsHandler) track(client *wsClient, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.clients[client] = struct{}{}
	} else {
		delete(s.clients, client)
	}
}

// watchFollowing 关注关系变化时刷新关注列表，订阅失败只影响自动刷新
func (s *WsHandler) watchFollowing(ctx context.Context, userID string, client *wsClient, session *messenger.Session) func() {
	feed, err := s.listener.Listen(ctx, consts.IMFollowingKey+userID)
	if err != nil {
		log.WarnContext(ctx, "Listen following changes failed", "userID", userID, "err", err)
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-feed.C():
				if !ok {
					return
				}
				client.serial(func() {
					if err := session.RefreshFollowing(ctx); err != nil {
						log.WarnContext(ctx, "Refresh following failed", "userID", userID, "err", err)
					}
				})
			}
		}
	}()

	return func() {
		_ = feed.Close()
		<-done
	}
}

// wsClient 实现 messenger.Sink；状态帧只保留最新一份，由写协程统一发送
type wsClient struct {
	conn *websocket.Conn
	wake chan struct{}
	done chan struct{}

	// 客户端指令与关注列表刷新串行执行
	cmdMu sync.Mutex

	mu      sync.Mutex
	pending map[string]interface{}
	errors  []*dto.ErrorFrameDTO
}

func newWsClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn:    conn,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		pending: make(map[string]interface{}),
	}
}

// 状态帧的发送顺序
var stateFrames = []string{dto.FrameFollowing, dto.FrameSelection, dto.FrameWindow, dto.FrameUnread}

func (c *wsClient) SelectionChanged(sel messenger.Selection) {
	c.put(dto.FrameSelection, toSelectionDTO(sel))
}

// WindowChanged 合并窗口帧时保留尚未发出的滚动到最新标记
func (c *wsClient) WindowChanged(win *messenger.Window) {
	frame := toWindowDTO(win)
	c.mu.Lock()
	if prev, ok := c.pending[dto.FrameWindow].(*dto.WindowDTO); ok && prev.ScrollToLatest && prev.ConversationKey == frame.ConversationKey {
		frame.ScrollToLatest = true
	}
	c.pending[dto.FrameWindow] = frame
	c.mu.Unlock()
	c.signal()
}

func (c *wsClient) UnreadChanged(unread *messenger.Unread) {
	c.put(dto.FrameUnread, toUnreadDTO(unread))
}

func (c *wsClient) FollowingChanged(following []*messenger.User) {
	users := make([]*dto.ChatUserDTO, 0, len(following))
	for _, u := range following {
		users = append(users, toChatUserDTO(u))
	}
	c.put(dto.FrameFollowing, users)
}

func (c *wsClient) serial(fn func()) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	fn()
}

func (c *wsClient) put(frameType string, data interface{}) {
	c.mu.Lock()
	c.pending[frameType] = data
	c.mu.Unlock()
	c.signal()
}

// pushError 错误帧不合并，队列满时丢弃最旧的
func (c *wsClient) pushError(ctx context.Context, err error, draft string) {
	code, message := response.Resolve(err)
	if code == response.InternalServerError {
		log.ErrorContext(ctx, "WS command failed", "err", err)
	}

	c.mu.Lock()
	if len(c.errors) >= maxErrorFrames {
		c.errors = c.errors[1:]
	}
	c.errors = append(c.errors, &dto.ErrorFrameDTO{Code: code, Message: message, Draft: draft})
	c.mu.Unlock()
	c.signal()
}

func (c *wsClient) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *wsClient) drain() []dto.ServerFrame {
	c.mu.Lock()
	defer c.mu.Unlock()

	frames := make([]dto.ServerFrame, 0, len(c.pending)+len(c.errors))
	for _, t := range stateFrames {
		if data, ok := c.pending[t]; ok {
			frames = append(frames, dto.ServerFrame{Type: t, Data: data})
			delete(c.pending, t)
		}
	}
	for _, e := range c.errors {
		frames = append(frames, dto.ServerFrame{Type: dto.FrameError, Data: e})
	}
	c.errors = nil
	return frames
}

func (c *wsClient) writeLoop(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-c.wake:
			for _, f := range c.drain() {
				if err := c.write(f); err != nil {
					log.WarnContext(ctx, "WS 推送失败", "type", f.Type, "err", err)
					_ = c.conn.Close()
					return
				}
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (c *wsClient) write(f dto.ServerFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop 按顺序执行客户端指令，连接出错时返回
func (c *wsClient) readLoop(ctx context.Context, session *messenger.Session) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WarnContext(ctx, "WS 读取失败", "err", err)
			}
			return
		}

		var frame dto.ClientFrame
		if err = json.Unmarshal(data, &frame); err != nil {
			c.pushError(ctx, service.ErrParamInvalid, "")
			continue
		}
		c.serial(func() { c.dispatch(ctx, session, &frame) })
	}
}

func (c *wsClient) dispatch(ctx context.Context, session *messenger.Session, frame *dto.ClientFrame) {
	var err error
	switch frame.Type {
	case dto.FrameSelect:
		_, err = session.Select(ctx, frame.TargetID)
	case dto.FrameLoadMore:
		err = session.LoadMore(ctx)
	case dto.FrameSend:
		if _, err = session.Send(ctx, frame.Body); err != nil {
			c.pushError(ctx, err, session.Draft())
			return
		}
	case dto.FrameRefreshFollowing:
		err = session.RefreshFollowing(ctx)
	default:
		err = service.ErrParamInvalid
	}
	if err != nil {
		c.pushError(ctx, err, "")
	}
}
