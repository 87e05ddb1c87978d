package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const scanGateKeyPrefix = "scan:gate:"

// ErrScanGateLeaseLost is returned by Release when the device key no longer carries the caller's
// lease, because processing outlived the lease TTL and another holder took the device.
var ErrScanGateLeaseLost = errors.New("scan gate lease lost")

// Re-arms the device key with the cooldown only while it still holds the caller's lease.
var releaseScanGate = redis.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[2]) > 0 then
	redis.call('SET', KEYS[1], 'cooldown', 'PX', ARGV[2])
else
	redis.call('DEL', KEYS[1])
end
return 1
`)

// ScanGateRepository serialises scans per device across API replicas. A device key holds a lease
// token while a scan is processed and is then re-armed with the cooldown TTL.
type ScanGateRepository struct {
	client        *redis.Client
	processingTTL time.Duration
}

// NewScanGateRepository constructs the repository. processingTTL bounds how long a crashed
// holder can keep a device locked.
func NewScanGateRepository(client *redis.Client, processingTTL time.Duration) *ScanGateRepository {
	if processingTTL <= 0 {
		processingTTL = 30 * time.Second
	}
	return &ScanGateRepository{client: client, processingTTL: processingTTL}
}

func scanGateKey(device string) string {
	return scanGateKeyPrefix + device
}

// TryAcquire claims the device and returns the lease to release it with. ok is false while another
// scan is processing or the cooldown from the previous scan has not elapsed.
func (r *ScanGateRepository) TryAcquire(ctx context.Context, device string) (string, bool, error) {
	lease := uuid.NewString()
	ok, err := r.client.SetNX(ctx, scanGateKey(device), lease, r.processingTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire scan gate %s: %w", device, err)
	}
	if !ok {
		return "", false, nil
	}
	return lease, true, nil
}

// Release keeps the device closed for cooldown, or frees it immediately when cooldown is zero. A key
// taken over by another holder is left untouched and ErrScanGateLeaseLost is returned.
func (r *ScanGateRepository) Release(ctx context.Context, device, lease string, cooldown time.Duration) error {
	if cooldown < 0 {
		cooldown = 0
	}
	released, err := releaseScanGate.Run(ctx, r.client, []string{scanGateKey(device)}, lease, cooldown.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("release scan gate %s: %w", device, err)
	}
	if released == 0 {
		return fmt.Errorf("release scan gate %s: %w", device, ErrScanGateLeaseLost)
	}
	return nil
}
