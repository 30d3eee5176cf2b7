package redis

import (
	"CraveQuest/internal/model"
	"CraveQuest/internal/pkg/consts"
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// BaselineStore 保存每个排行榜最近一次发布的快照，用于计算名次变化
type BaselineStore struct {
	client *Client
}

func NewBaselineStore(client *Client) *BaselineStore {
	return &BaselineStore{client: client}
}

// Load 没有历史快照时返回 nil, nil
func (s *BaselineStore) Load(ctx context.Context, key model.RankingKey) (*model.RankingSnapshot, error) {
	raw, err := s.client.GetValue(ctx, consts.RankingBaselineKey+key.String())
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var snap model.RankingSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode baseline %s: %w", key, err)
	}
	return &snap, nil
}

// Save 覆盖旧快照，不过期
func (s *BaselineStore) Save(ctx context.Context, snap *model.RankingSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.SetWithExpiration(ctx, consts.RankingBaselineKey+snap.Key.String(), raw, 0)
}
