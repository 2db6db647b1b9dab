package service

import (
	"GameZone/internal/api/config"
	"GameZone/internal/api/dto"
	"GameZone/internal/messenger"
	"GameZone/internal/pkg/consts"
	"GameZone/internal/pkg/live"
	"GameZone/internal/pkg/mongo"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	maxHistoryLimit       = 200
	maxConversationList   = 100
	defaultRecentMarkers  = 100
	statusWriteTimeout    = 2 * time.Second
	calibrationWorkerSize = 2
)

// IMService 私信存储：消息与会话状态落在 MongoDB，变更通过 Redis 频道通知订阅方
type IMService interface {
	messenger.MessageStore
	messenger.StatusStore
	SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	GetHistory(ctx context.Context, userID uint64, req *dto.HistoryReq) ([]*dto.MessageDTO, error)
	GetConversationList(ctx context.Context, userID uint64) ([]*dto.ConversationDTO, error)
	MarkAsRead(ctx context.Context, userID, targetUserID uint64) error
	Close()
}

type imServiceImpl struct {
	cfg         config.IMConfig
	messageRepo mongo.MessageRepo
	statusRepo  mongo.StatusRepo
	notifier    live.Notifier
	listener    live.Listener
	userSvc     UserService

	retryChan chan *mongo.Message
	wg        sync.WaitGroup
	stopChan  chan struct{}
}

// NewIMService 构造函数：初始化服务并启动会话状态的异步校准工作池
func NewIMService(
	cfg config.IMConfig,
	messageRepo mongo.MessageRepo,
	statusRepo mongo.StatusRepo,
	notifier live.Notifier,
	listener live.Listener,
	userSvc UserService,
) IMService {
	if cfg.InitialLimit <= 0 {
		cfg.InitialLimit = messenger.DefaultInitialLimit
	}
	if cfg.RecentMarkers <= 0 {
		cfg.RecentMarkers = defaultRecentMarkers
	}
	s := &imServiceImpl{
		cfg:         cfg,
		messageRepo: messageRepo,
		statusRepo:  statusRepo,
		notifier:    notifier,
		listener:    listener,
		userSvc:     userSvc,
		retryChan:   make(chan *mongo.Message, 1024),
		stopChan:    make(chan struct{}),
	}

	s.wg.Add(calibrationWorkerSize)
	for i := 0; i < calibrationWorkerSize; i++ {
		go s.calibrationWorker()
	}

	return s
}

// WatchMessages 会话中最新 limit 条消息的实时查询
func (s *imServiceImpl) WatchMessages(ctx context.Context, key string, limit int, fn func([]*messenger.Message)) (messenger.Subscription, error) {
	if limit <= 0 {
		limit = s.cfg.InitialLimit
	}
	sub, err := live.Watch(ctx, s.listener, consts.IMConversationKey+key, func(ctx context.Context) ([]*messenger.Message, error) {
		models, err := s.messageRepo.GetWindow(ctx, key, limit)
		if err != nil {
			return nil, err
		}
		res := make([]*messenger.Message, 0, len(models))
		for _, m := range models {
			res = append(res, toMessage(m))
		}
		return res, nil
	}, fn)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// WatchStatus 会话状态的实时查询，会话还没有状态文档时推送空状态
func (s *imServiceImpl) WatchStatus(ctx context.Context, key string, fn func(*messenger.ConversationStatus)) (messenger.Subscription, error) {
	sub, err := live.Watch(ctx, s.listener, consts.IMStatusKey+key, func(ctx context.Context) (*messenger.ConversationStatus, error) {
		st, err := s.statusRepo.GetStatus(ctx, key)
		if err != nil {
			return nil, err
		}
		return toStatus(key, st), nil
	}, fn)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// CreateMessage 写入消息并回填 ID 和创建时间；会话状态更新失败不影响发送结果
func (s *imServiceImpl) CreateMessage(ctx context.Context, msg *messenger.Message) error {
	if strings.TrimSpace(msg.Body) == "" {
		return messenger.ErrEmptyMessage
	}
	if _, err := participantsOf(msg.ConversationKey, msg.SenderID); err != nil {
		return ErrConversation
	}
	if peer, _ := messenger.PeerOf(msg.ConversationKey, msg.SenderID); peer != msg.RecipientID {
		return ErrConversation
	}

	model := &mongo.Message{
		ConversationKey: msg.ConversationKey,
		SenderID:        msg.SenderID,
		RecipientID:     msg.RecipientID,
		Content:         msg.Body,
		CreatedAt:       now(),
	}
	if err := s.messageRepo.SaveMessage(ctx, model); err != nil {
		return err
	}
	msg.ID = model.ID.Hex()
	msg.CreatedAt = model.CreatedAt

	s.notify(ctx, consts.IMConversationKey+msg.ConversationKey)

	writeCtx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()
	if err := s.appendStatus(writeCtx, model); err != nil {
		log.WarnContext(ctx, "Append conversation status failed, retrying in background", "key", model.ConversationKey, "err", err)
		select {
		case s.retryChan <- model:
		default:
			log.ErrorContext(ctx, "Conversation status retry queue full", "key", model.ConversationKey)
		}
	}
	return nil
}

// MarkRead 把 userID 的已读进度推进到当前时间
func (s *imServiceImpl) MarkRead(ctx context.Context, key, userID string) error {
	participants, err := participantsOf(key, userID)
	if err != nil {
		return ErrConversation
	}
	if err = s.statusRepo.MarkRead(ctx, key, participants, userID, now()); err != nil {
		return err
	}
	s.notify(ctx, consts.IMStatusKey+key)
	return nil
}

func (s *imServiceImpl) SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	if req.TargetUserID == senderID {
		return nil, ErrTargetUserInvalid
	}
	if _, err := s.userSvc.GetUserSimpleInfo(ctx, req.TargetUserID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTargetUserInvalid
		}
		return nil, err
	}

	sender := strconv.FormatUint(senderID, 10)
	target := strconv.FormatUint(req.TargetUserID, 10)
	msg := &messenger.Message{
		ConversationKey: messenger.ConversationKey(sender, target),
		SenderID:        sender,
		RecipientID:     target,
		Body:            req.Content,
	}
	if err := s.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return toMessageDTO(msg), nil
}

// GetHistory 一次性拉取最近的消息窗口，最新的在前
func (s *imServiceImpl) GetHistory(ctx context.Context, userID uint64, req *dto.HistoryReq) ([]*dto.MessageDTO, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.InitialLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	key := messenger.ConversationKey(strconv.FormatUint(userID, 10), strconv.FormatUint(req.TargetUserID, 10))
	models, err := s.messageRepo.GetWindow(ctx, key, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageDTO, 0, len(models))
	for _, m := range models {
		res = append(res, toMessageDTO(toMessage(m)))
	}
	return res, nil
}

// GetConversationList 会话列表，未读数按会话状态中保留的最近标记计算
func (s *imServiceImpl) GetConversationList(ctx context.Context, userID uint64) ([]*dto.ConversationDTO, error) {
	self := strconv.FormatUint(userID, 10)
	statuses, err := s.statusRepo.ListByParticipant(ctx, self, maxConversationList)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ConversationDTO, 0, len(statuses))
	peerIDs := make([]uint64, 0, len(statuses))
	for _, st := range statuses {
		peer, err := messenger.PeerOf(st.Key, self)
		if err != nil {
			log.WarnContext(ctx, "Skip malformed conversation", "key", st.Key, "err", err)
			continue
		}
		d := &dto.ConversationDTO{
			ConversationKey: st.Key,
			PeerID:          peer,
			LastMessageAt:   st.LastMessageAt,
			UnreadCount:     len(messenger.UnreadMarkers(toStatus(st.Key, st), self)),
		}
		if st.LastMessage != nil {
			d.LastMsgContent = st.LastMessage.Content
			d.LastSenderID = st.LastMessage.SenderID
		}
		if id, err := strconv.ParseUint(peer, 10, 64); err == nil {
			peerIDs = append(peerIDs, id)
		}
		res = append(res, d)
	}

	peers, err := s.userSvc.GetUserSimpleInfoByIds(ctx, peerIDs)
	if err != nil {
		log.WarnContext(ctx, "Load conversation peers failed", "err", err)
		return res, nil
	}
	byID := make(map[string]*dto.UserDTO, len(peers))
	for _, p := range peers {
		if p.UserID != nil {
			byID[strconv.FormatUint(*p.UserID, 10)] = p
		}
	}
	for _, d := range res {
		p, ok := byID[d.PeerID]
		if !ok {
			continue
		}
		if p.Nickname != nil {
			d.PeerNickname = *p.Nickname
		}
		if p.AvatarURL != nil {
			d.PeerAvatarURL = *p.AvatarURL
		}
	}
	return res, nil
}

func (s *imServiceImpl) MarkAsRead(ctx context.Context, userID, targetUserID uint64) error {
	if userID == targetUserID {
		return ErrTargetUserInvalid
	}
	self := strconv.FormatUint(userID, 10)
	key := messenger.ConversationKey(self, strconv.FormatUint(targetUserID, 10))
	return s.MarkRead(ctx, key, self)
}

func (s *imServiceImpl) Close() {
	close(s.stopChan)
	s.wg.Wait()
	log.Info("IMService shut down gracefully")
}

func (s *imServiceImpl) appendStatus(ctx context.Context, m *mongo.Message) error {
	participants, err := participantsOf(m.ConversationKey, m.SenderID)
	if err != nil {
		return err
	}
	if err = s.statusRepo.AppendMessage(ctx, m, participants, s.cfg.RecentMarkers); err != nil {
		return err
	}
	s.notify(ctx, consts.IMStatusKey+m.ConversationKey)
	return nil
}

// calibrationWorker 重试写入失败的会话状态
func (s *imServiceImpl) calibrationWorker() {
	defer s.wg.Done()
	for {
		select {
		case msg := <-s.retryChan:
			s.retryStatus(msg)
		case <-s.stopChan:
			return
		}
	}
}

func (s *imServiceImpl) retryStatus(msg *mongo.Message) {
	backoff := 200 * time.Millisecond
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.appendStatus(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		select {
		case <-time.After(backoff):
		case <-s.stopChan:
			return
		}
		backoff *= 2
	}
	log.Error("Give up appending conversation status", "key", msg.ConversationKey, "message_id", msg.ID.Hex())
}

func (s *imServiceImpl) notify(ctx context.Context, channel string) {
	if err := s.notifier.Notify(ctx, channel); err != nil {
		log.WarnContext(ctx, "Publish change notification failed", "channel", channel, "err", err)
	}
}

// participantsOf 校验 key 合法且 self 是参与者，返回升序的两端 UID
func participantsOf(key, self string) ([]string, error) {
	peer, err := messenger.PeerOf(key, self)
	if err != nil {
		return nil, err
	}
	if messenger.ConversationKey(self, peer) != key {
		return nil, fmt.Errorf("conversation key %q is not canonical", key)
	}
	participants := []string{self, peer}
	sort.Strings(participants)
	return participants, nil
}

// now MongoDB 只保存到毫秒
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func toMessage(m *mongo.Message) *messenger.Message {
	return &messenger.Message{
		ID:              m.ID.Hex(),
		ConversationKey: m.ConversationKey,
		SenderID:        m.SenderID,
		RecipientID:     m.RecipientID,
		Body:            m.Content,
		CreatedAt:       m.CreatedAt,
	}
}

func toStatus(key string, st *mongo.ConversationStatus) *messenger.ConversationStatus {
	res := &messenger.ConversationStatus{
		Key:      key,
		LastRead: make(map[string]time.Time),
	}
	if st == nil {
		return res
	}
	for uid, t := range st.LastRead {
		res.LastRead[uid] = t
	}
	res.Markers = make([]messenger.Marker, 0, len(st.Recent))
	for _, m := range st.Recent {
		res.Markers = append(res.Markers, messenger.Marker{
			MessageID:   m.MessageID.Hex(),
			SenderID:    m.SenderID,
			RecipientID: m.RecipientID,
			CreatedAt:   m.CreatedAt,
		})
	}
	return res
}

func toMessageDTO(m *messenger.Message) *dto.MessageDTO {
	return &dto.MessageDTO{
		ID:              m.ID,
		ConversationKey: m.ConversationKey,
		SenderID:        m.SenderID,
		RecipientID:     m.RecipientID,
		Content:         m.Body,
		CreatedAt:       m.CreatedAt,
	}
}
