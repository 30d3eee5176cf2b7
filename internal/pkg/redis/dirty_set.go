package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// DirtySet 记录待处理的菜谱 id
// 消费方 Drain 时将集合改名为 processing 批次，处理完成后 Ack 删除
type DirtySet struct {
	client        *Client
	key           string
	processingKey string
}

func NewDirtySet(client *Client, key, processingKey string) *DirtySet {
	return &DirtySet{client: client, key: key, processingKey: processingKey}
}

func (d *DirtySet) Mark(ctx context.Context, ids ...uint64) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		members = append(members, strconv.FormatUint(id, 10))
	}
	return d.client.SAdd(ctx, d.key, members...)
}

// Drain 取出当前批次；上次未 Ack 的批次优先返回
func (d *DirtySet) Drain(ctx context.Context) ([]uint64, error) {
	pending, err := d.client.Exists(ctx, d.processingKey)
	if err != nil {
		return nil, err
	}
	if !pending {
		if err := d.client.Rename(ctx, d.key, d.processingKey); err != nil {
			// 集合为空或已被其他实例取走
			if strings.Contains(err.Error(), "no such key") {
				return nil, nil
			}
			return nil, err
		}
	}

	members, err := d.client.GetSet(ctx, d.processingKey)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid dirty member %q: %w", m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Ack 删除已处理的批次
func (d *DirtySet) Ack(ctx context.Context) error {
	return d.client.DeleteKey(ctx, d.processingKey)
}
