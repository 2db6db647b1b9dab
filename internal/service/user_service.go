package service

import (
	"GameZone/internal/api/dto"
	"GameZone/internal/model"
	"GameZone/internal/pkg/consts"
	"GameZone/internal/pkg/es"
	"GameZone/internal/pkg/minio"
	"GameZone/internal/pkg/redis"
	"GameZone/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

const userCacheTTL = time.Hour

type UserService interface {
	GetUserSimpleInfo(ctx context.Context, id uint64) (*dto.UserDTO, error)
	GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*dto.UserDTO, error)
	SearchUser(ctx context.Context, req *dto.SearchUserDTO) ([]*dto.UserDTO, error)
	UpdateUserFollowCount(ctx context.Context, id uint64, followerCount, followingCount int64) error
	InvalidateUserCache(ctx context.Context, ids ...uint64) error
}

type UserServiceImpl struct {
	userRepo   repository.UserRepo
	userESRepo es.UserRepo
}

func NewUserService(userRepo repository.UserRepo, userESRepo es.UserRepo) UserService {
	return &UserServiceImpl{
		userRepo:   userRepo,
		userESRepo: userESRepo,
	}
}

func (s *UserServiceImpl) GetUserSimpleInfo(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	users, err := s.GetUserSimpleInfoByIds(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

// GetUserSimpleInfoByIds 按 ids 顺序返回，不存在的用户直接跳过
func (s *UserServiceImpl) GetUserSimpleInfoByIds(ctx context.Context, ids []uint64) ([]*dto.UserDTO, error) {
	missIds := make([]uint64, 0, len(ids))
	mp := make(map[uint64]*dto.UserDTO, len(ids))
	for _, id := range ids {
		value, err := redis.GetValue(ctx, consts.UserSimpleInfoKey+strconv.FormatUint(id, 10))
		if err != nil {
			return nil, err
		}
		if value == "" {
			missIds = append(missIds, id)
			continue
		}
		var userDTO *dto.UserDTO
		if err = json.Unmarshal([]byte(value), &userDTO); err != nil {
			missIds = append(missIds, id)
			continue
		}
		mp[id] = userDTO
	}

	if len(missIds) > 0 {
		userDetails, err := s.userRepo.GetUserSimpleInfoByIds(ctx, missIds)
		if err != nil {
			return nil, err
		}
		for _, userDetail := range userDetails {
			userDTO, err := s.toUserDTO(ctx, userDetail)
			if err != nil {
				return nil, err
			}
			mp[userDetail.UserID] = userDTO
			s.cacheUser(ctx, userDetail.UserID, userDTO)
		}
	}

	userDTOList := make([]*dto.UserDTO, 0, len(ids))
	for _, id := range ids {
		if mp[id] == nil {
			continue
		}
		userDTOList = append(userDTOList, mp[id])
	}
	return userDTOList, nil
}

// SearchUser 按昵称搜人，数据来自 ES 索引
func (s *UserServiceImpl) SearchUser(ctx context.Context, req *dto.SearchUserDTO) ([]*dto.UserDTO, error) {
	page, pageSize := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 20
	}

	users, err := s.userESRepo.SearchUser(ctx, req.Keyword, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.UserDTO, 0, len(users))
	for _, u := range users {
		userDTO := &dto.UserDTO{}
		if err = copier.Copy(userDTO, u); err != nil {
			return nil, err
		}
		id := u.ID
		url := minio.GetAvatarURL(ctx, u.AvatarURL)
		userDTO.UserID = &id
		userDTO.AvatarURL = &url
		res = append(res, userDTO)
	}
	return res, nil
}

func (s *UserServiceImpl) UpdateUserFollowCount(ctx context.Context, id uint64, followerCount, followingCount int64) error {
	return s.userRepo.UpdateUserFollowCount(ctx, id, followerCount, followingCount)
}

// InvalidateUserCache 资料变更后删除简要信息缓存
func (s *UserServiceImpl) InvalidateUserCache(ctx context.Context, ids ...uint64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, consts.UserSimpleInfoKey+strconv.FormatUint(id, 10))
	}
	return redis.DeleteKey(ctx, keys...)
}

func (s *UserServiceImpl) toUserDTO(ctx context.Context, detail *model.UserDetail) (*dto.UserDTO, error) {
	userDTO := &dto.UserDTO{}
	if err := copier.Copy(userDTO, detail); err != nil {
		return nil, err
	}
	url := minio.GetAvatarURL(ctx, detail.AvatarURL)
	userDTO.AvatarURL = &url
	return userDTO, nil
}

func (s *UserServiceImpl) cacheUser(ctx context.Context, id uint64, userDTO *dto.UserDTO) {
	jsonStr, err := json.Marshal(userDTO)
	if err != nil {
		return
	}
	key := consts.UserSimpleInfoKey + strconv.FormatUint(id, 10)
	if err = redis.SetWithExpiration(ctx, key, string(jsonStr), userCacheTTL); err != nil {
		log.WarnContext(ctx, "Cache user simple info failed", "user_id", id, "err", err)
	}
}
