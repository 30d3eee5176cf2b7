package kafka

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// Canal 事件类型
const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

const canalTimeLayout = "2006-01-02 15:04:05"

// errMalformed 消息本身无法处理，重试无意义
var errMalformed = errors.New("malformed canal message")

// CanalMessage 定义了 Canal 推送到 Kafka 的 JSON 数据结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`

	// Data 存储变更后的数据
	Data []map[string]interface{} `json:"data"`

	// Old 存储变更前被修改的列
	Old []map[string]interface{} `json:"old"`
}

// EventTime binlog 产生时间
func (m *CanalMessage) EventTime() time.Time {
	if m.ES > 0 {
		return time.UnixMilli(m.ES)
	}
	return time.Now()
}

// ToCanalMessage 将kafka消息转换为canal消息结构体
func ToCanalMessage(msg *sarama.ConsumerMessage, tableName string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	if canalMsg.Table != tableName {
		return nil, fmt.Errorf("%w: table %q, want %q", errMalformed, canalMsg.Table, tableName)
	}

	if canalMsg.IsDDL || len(canalMsg.Data) == 0 {
		return nil, fmt.Errorf("%w: no row data", errMalformed)
	}

	return &canalMsg, nil
}

// Canal 的列值统一为字符串，数值列偶尔以 JSON number 出现

func StrToUint64(v interface{}) (uint64, error) {
	switch val := v.(type) {
	case string:
		return strconv.ParseUint(val, 10, 64)
	case float64:
		return uint64(val), nil
	case nil:
		return 0, errors.New("nil value")
	default:
		return strconv.ParseUint(fmt.Sprint(val), 10, 64)
	}
}

func StrToString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func StrToBool(v interface{}) bool {
	s := StrToString(v)
	return s == "1" || s == "true"
}

// StrToTime 按本地时区解析 datetime 列
func StrToTime(v interface{}) (time.Time, bool) {
	s := StrToString(v)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(canalTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// rowUint64 读取必需的 id 列，缺失视为消息损坏
func rowUint64(row map[string]interface{}, column string) (uint64, error) {
	id, err := StrToUint64(row[column])
	if err != nil {
		return 0, fmt.Errorf("%w: column %s: %v", errMalformed, column, err)
	}
	return id, nil
}
