package persistence

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"self-checkout/internal/types"
	"sync"
	"time"
)

// 日志记录类型
const (
	RecordBegin    = "BEGIN"    // 交易开始（第一件商品扫描）
	RecordComplete = "COMPLETE" // 交易完成，附带小票
	RecordAbandon  = "ABANDON"  // 交易被放弃
)

// Record 代表日志文件中的一条记录
type Record struct {
	Type          string         `json:"type"`
	TransactionID string         `json:"txn_id"`
	StationID     string         `json:"station_id,omitempty"`
	Receipt       *types.Receipt `json:"receipt,omitempty"` // 仅 COMPLETE
	Reason        string         `json:"reason,omitempty"`  // 仅 ABANDON
	At            time.Time      `json:"at"`
}

// Journal 是交易预写日志 (JSON Lines)，用于审计和崩溃后发现中断的交易
type Journal struct {
	file *os.File   // 日志文件句柄
	mu   sync.Mutex // 互斥锁，保证文件写入的原子性
}

// OpenJournal 创建或打开一个日志文件
func OpenJournal(path string) (*Journal, error) {
	// O_APPEND: 追加写入, O_CREATE: 文件不存在则创建, O_RDWR: 读写模式
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	return &Journal{file: file}, nil
}

// Begin 记录一笔交易开始
func (j *Journal) Begin(txnID, stationID string) error {
	return j.append(Record{Type: RecordBegin, TransactionID: txnID, StationID: stationID})
}

// Complete 记录交易完成及其小票
func (j *Journal) Complete(r types.Receipt) error {
	return j.append(Record{Type: RecordComplete, TransactionID: r.TransactionID, StationID: r.StationID, Receipt: &r})
}

// Abandon 记录交易被放弃
func (j *Journal) Abandon(txnID, reason string) error {
	return j.append(Record{Type: RecordAbandon, TransactionID: txnID, Reason: reason})
}

func (j *Journal) append(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// 写入数据并在末尾添加换行符
	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return err
	}
	// 确保数据被刷新到磁盘，防止数据丢失
	return j.file.Sync()
}

// Recover 返回已开始但既未完成也未放弃的交易 ID（按开始顺序）
// 在系统启动时调用
func (j *Journal) Recover() ([]string, error) {
	var order []string
	open := make(map[string]bool)
	err := j.scan(func(rec Record) {
		switch rec.Type {
		case RecordBegin:
			if !open[rec.TransactionID] {
				order = append(order, rec.TransactionID)
			}
			open[rec.TransactionID] = true
		case RecordComplete, RecordAbandon:
			delete(open, rec.TransactionID)
		}
	})
	if err != nil {
		return nil, err
	}
	var pending []string
	for _, id := range order {
		if open[id] {
			pending = append(pending, id)
		}
	}
	return pending, nil
}

// Receipts 返回所有已完成交易的小票
func (j *Journal) Receipts() ([]types.Receipt, error) {
	var out []types.Receipt
	err := j.scan(func(rec Record) {
		if rec.Type == RecordComplete && rec.Receipt != nil {
			out = append(out, *rec.Receipt)
		}
	})
	return out, err
}

func (j *Journal) scan(fn func(Record)) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	// 将文件指针移动到开头以进行读取
	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	scanner := bufio.NewScanner(j.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			// 忽略损坏的行
			continue
		}
		fn(rec)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	// 恢复文件指针到末尾，以便后续追加写入
	_, err := j.file.Seek(0, io.SeekEnd)
	return err
}

// Close 关闭日志文件
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
