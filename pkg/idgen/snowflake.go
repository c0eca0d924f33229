package idgen

import (
	"fmt"
	"sync"
	"time"
)

// ============================================================================
// Snowflake ID generator
// ============================================================================
//
// Layout (64 bit):
//
//	0 | 41 bit ms timestamp | 10 bit worker id | 12 bit sequence
//
// IDs from one worker are strictly increasing, which is what makes the
// ledger references below monotonically assigned.

const (
	epoch          = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

// Reference prefixes. Each external-facing reference is prefix + snowflake id.
const (
	PrefixDeposit     = "PSK"
	PrefixTransaction = "TXN"
	PrefixRefund      = "REF"
	PrefixCampaign    = "CMP"
	PrefixBoost       = "BST"
	PrefixService     = "SRV"
	PrefixAdjustment  = "ADJ"
)

type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
}

var (
	defaultGenerator *Snowflake
	once             sync.Once
)

// NewSnowflake returns a generator for workerID (0-1023).
func NewSnowflake(workerID int64) (*Snowflake, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, fmt.Errorf("workerID must be within 0-%d", maxWorkerID)
	}
	return &Snowflake{workerID: workerID}, nil
}

// Init sets up the package-level generator. Only the first call has effect.
func Init(workerID int64) error {
	var err error
	once.Do(func() {
		defaultGenerator, err = NewSnowflake(workerID)
	})
	return err
}

// NextID falls back to worker 1 when Init was never called.
func NextID() int64 {
	_ = Init(1)
	return defaultGenerator.Generate()
}

func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < s.timestamp {
		// clock moved backwards; stay on the last issued millisecond
		now = s.timestamp
	}

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	return ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence
}

// NewReference returns prefix followed by the next id, e.g. TXN1234567890.
func NewReference(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, NextID())
}

func GenerateTransactionNo() string {
	return NewReference(PrefixTransaction)
}

func GenerateRefundNo() string {
	return NewReference(PrefixRefund)
}

func GenerateDepositReference() string {
	return NewReference(PrefixDeposit)
}
