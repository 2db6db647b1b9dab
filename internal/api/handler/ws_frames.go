package handler

import (
	"GameZone/internal/api/dto"
	"GameZone/internal/messenger"
)

func toChatUserDTO(u *messenger.User) *dto.ChatUserDTO {
	if u == nil {
		return nil
	}
	return &dto.ChatUserDTO{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
}

func toSelectionDTO(sel messenger.Selection) *dto.SelectionDTO {
	return &dto.SelectionDTO{
		TargetID:        sel.TargetID,
		ConversationKey: sel.Key,
		Counterpart:     toChatUserDTO(sel.Counterpart),
	}
}

func toWindowDTO(win *messenger.Window) *dto.WindowDTO {
	res := &dto.WindowDTO{
		ConversationKey: win.Key,
		Limit:           win.Limit,
		Messages:        make([]*dto.MessageDTO, 0, len(win.Messages)),
		CanLoadMore:     win.CanLoadMore,
		Anchor:          win.Anchor,
		ScrollToLatest:  win.ScrollToLatest,
	}
	for _, m := range win.Messages {
		res.Messages = append(res.Messages, &dto.MessageDTO{
			ID:              m.ID,
			ConversationKey: m.ConversationKey,
			SenderID:        m.SenderID,
			RecipientID:     m.RecipientID,
			Content:         m.Body,
			CreatedAt:       m.CreatedAt,
		})
	}
	return res
}

func toUnreadDTO(unread *messenger.Unread) *dto.UnreadDTO {
	res := &dto.UnreadDTO{
		ConversationKey: unread.Key,
		Count:           len(unread.Messages),
		Messages:        make([]*dto.UnreadMarkerDTO, 0, len(unread.Messages)),
	}
	for _, m := range unread.Messages {
		res.Messages = append(res.Messages, &dto.UnreadMarkerDTO{
			MessageID: m.MessageID,
			SenderID:  m.SenderID,
			CreatedAt: m.CreatedAt.UnixMilli(),
		})
	}
	return res
}
