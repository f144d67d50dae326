package redis

import (
	"encoding/json"
	"fmt"
	"time"

	"gometwallet/config"
	"gometwallet/types"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var pool *redis.Pool

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func Init() {
	redisAddr := fmt.Sprintf("%s:%d", config.Config.Server.RedisHost, config.Config.Server.RedisPort)
	pool = &redis.Pool{
		MaxIdle: 5,
		Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
	}
}

// Store retains burn receipts between export and import so a crashed
// caller can resubmit the same proof. Satisfies bridge.BurnStore.
type Store struct{}

func NewStore() *Store { return &Store{} }

func (s *Store) SaveExported(walletID string, burn *types.BurnReceipt) error {
	return UpsertBurnRecord(&types.BurnRecord{
		Status:    "exported",
		WalletID:  walletID,
		Burn:      burn,
		TsCreated: time.Now().Unix(),
	})
}

func (s *Store) SetStatus(currentBurnHash, status, message string) error {
	rec, err := FindBurnRecordByHash(currentBurnHash)
	if err != nil {
		return err
	}
	if rec == nil {
		// import of a burn this instance never saw, nothing to move
		return nil
	}
	prev := rec.Status
	rec.Status = status
	if message != "" {
		if rec.Message == "" {
			rec.Message = message
		} else {
			rec.Message += "; " + message
		}
	}
	return ChangeBurnRecordStatus(rec, prev)
}

// note that multiple status sets should not contain one record
func UpsertBurnRecord(rec *types.BurnRecord) error {
	conn := pool.Get()
	defer conn.Close()

	if rec == nil || rec.Burn == nil {
		return errors.New("null record to store")
	}
	if _, ok := config.RedisStatusSets[rec.Status]; !ok {
		return errors.Errorf("unknown burn record status %q", rec.Status)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	recordKey := fmt.Sprintf("burn:%s:%s", rec.Status, rec.ID)

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "cannot marshal burn record")
	}

	if _, err = conn.Do("SET", recordKey, recJSON); err != nil {
		log.Error().Err(err).Msg("redis SET")
		return err
	}
	if _, err = conn.Do("SADD", config.RedisStatusSets[rec.Status], recordKey); err != nil {
		log.Error().Err(err).Msg("redis SADD")
		return err
	}
	return nil
}

func ChangeBurnRecordStatus(rec *types.BurnRecord, prevStatus string) error {
	conn := pool.Get()
	defer conn.Close()

	if rec == nil {
		return errors.New("null record to store")
	}
	if _, ok := config.RedisStatusSets[rec.Status]; !ok {
		return errors.Errorf("unknown burn record status %q", rec.Status)
	}

	prevRecordKey := fmt.Sprintf("burn:%s:%s", prevStatus, rec.ID)
	recordKey := fmt.Sprintf("burn:%s:%s", rec.Status, rec.ID)

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "cannot marshal burn record")
	}

	if _, err = conn.Do("SREM", config.RedisStatusSets[prevStatus], prevRecordKey); err != nil {
		log.Error().Err(err).Msg("redis SREM")
		return err
	}
	if _, err = conn.Do("DEL", prevRecordKey); err != nil {
		log.Error().Err(err).Msg("redis DEL")
		return err
	}
	if _, err = conn.Do("SET", recordKey, recJSON); err != nil {
		log.Error().Err(err).Msg("redis SET")
		return err
	}
	if _, err = conn.Do("SADD", config.RedisStatusSets[rec.Status], recordKey); err != nil {
		log.Error().Err(err).Msg("redis SADD")
		return err
	}
	return nil
}

// FindBurnRecordByHash scans every status set for the record whose burn
// carries the given current burn hash.
func FindBurnRecordByHash(currentBurnHash string) (*types.BurnRecord, error) {
	for status := range config.RedisStatusSets {
		rec, err := findInStatus(status, func(r *types.BurnRecord) bool {
			return r.Burn != nil && r.Burn.CurrentBurnHash == currentBurnHash
		})
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}
	return nil, nil
}

func FindAllBurnRecordsByStatus(status string) ([]*types.BurnRecord, error) {
	if _, ok := config.RedisStatusSets[status]; !ok {
		return nil, errors.Errorf("unknown burn record status %q", status)
	}

	var recs []*types.BurnRecord
	_, err := scanStatus(status, func(r *types.BurnRecord) bool {
		recs = append(recs, r)
		return false
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func findInStatus(status string, match func(*types.BurnRecord) bool) (*types.BurnRecord, error) {
	return scanStatus(status, match)
}

// scanStatus SSCANs one status set, returning the first record for which
// match says stop. Everything present gets visited otherwise.
func scanStatus(status string, match func(*types.BurnRecord) bool) (*types.BurnRecord, error) {
	conn := pool.Get()
	defer conn.Close()

	var cursor int64
	for {
		values, err := redis.Values(conn.Do("SSCAN", config.RedisStatusSets[status], cursor))
		if err != nil {
			return nil, err
		}

		var keys []string
		values, err = redis.Scan(values, &cursor, &keys)
		if err != nil {
			return nil, err
		}

		for _, key := range keys {
			raw, err := redis.Bytes(conn.Do("GET", key))
			if errors.Is(err, redis.ErrNil) {
				continue
			}
			if err != nil {
				log.Error().Err(err).Msg("redis GET")
				return nil, err
			}

			var rec types.BurnRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, err
			}
			if match(&rec) {
				return &rec, nil
			}
		}

		if cursor == 0 {
			break
		}
	}
	return nil, nil
}
