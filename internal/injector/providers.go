package injector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/neurondb/NeuronFlow/internal/cache"
	"github.com/neurondb/NeuronFlow/internal/communication"
	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/logging"
	"github.com/neurondb/NeuronFlow/internal/storage"
)

const redisKeyPrefix = "neuronflow:"

/*
 * RegisterFileStorage binds the configured file storage provider.
 * "AWS-S3" binds *storage.S3Storage and "Custom" binds
 * *storage.CustomStorage. Any other value binds nothing, so a later
 * Resolve reports ErrNotRegistered.
 */
func RegisterFileStorage(ctx context.Context, c *Container, cfg *config.Config, logger *logging.Logger) error {
	switch cfg.FileStorage.Provider {
	case config.StorageProviderS3:
		s3Storage, err := storage.NewS3Storage(ctx, cfg.FileStorage.S3)
		if err != nil {
			return fmt.Errorf("failed to create S3 storage: %w", err)
		}
		logger.Info("File storage provider registered", map[string]interface{}{
			"provider": s3Storage.Provider(),
			"bucket":   s3Storage.Bucket(),
			"region":   s3Storage.Region(),
		})
		return c.Register(CapabilityFileStorage, s3Storage)

	case config.StorageProviderCustom:
		custom, err := storage.NewCustomStorage(cfg.FileStorage.CustomRoot)
		if err != nil {
			return fmt.Errorf("failed to create custom storage: %w", err)
		}
		logger.Info("File storage provider registered", map[string]interface{}{
			"provider": custom.Provider(),
			"root":     custom.Root(),
		})
		return c.Register(CapabilityFileStorage, custom)

	default:
		logger.Warn("Unknown file storage provider, file storage disabled", map[string]interface{}{
			"provider": cfg.FileStorage.Provider,
		})
		return nil
	}
}

/* RegisterEmail binds the email sender: "SMTP" or "Log"; anything else binds nothing */
func RegisterEmail(c *Container, cfg *config.Config, logger *logging.Logger) error {
	switch cfg.Communication.EmailProvider {
	case communication.ProviderSMTP:
		sender, err := communication.NewSMTPSender(cfg.Communication.SMTP)
		if err != nil {
			return fmt.Errorf("failed to create SMTP sender: %w", err)
		}
		return register(c, CapabilityEmailSender, sender, sender.Provider(), logger)
	case communication.ProviderLog:
		sender := communication.NewLogSender(logger)
		return register(c, CapabilityEmailSender, sender, sender.Provider(), logger)
	default:
		logger.Warn("Unknown email provider, email disabled", map[string]interface{}{
			"provider": cfg.Communication.EmailProvider,
		})
		return nil
	}
}

/* RegisterSMS binds the SMS sender: "Webhook" or "Log"; anything else binds nothing */
func RegisterSMS(c *Container, cfg *config.Config, logger *logging.Logger) error {
	switch cfg.Communication.SMSProvider {
	case communication.ProviderWebhook:
		sender, err := communication.NewWebhookSMSSender(cfg.Communication.SMSWebhookURL, cfg.Communication.SMSToken,
			&http.Client{Timeout: 10 * time.Second})
		if err != nil {
			return fmt.Errorf("failed to create SMS webhook sender: %w", err)
		}
		return register(c, CapabilitySMSSender, sender, sender.Provider(), logger)
	case communication.ProviderLog:
		sender := communication.NewLogSender(logger)
		return register(c, CapabilitySMSSender, sender, sender.Provider(), logger)
	default:
		logger.Warn("Unknown SMS provider, SMS disabled", map[string]interface{}{
			"provider": cfg.Communication.SMSProvider,
		})
		return nil
	}
}

/*
 * RegisterCache binds the node path cache: "Redis" or "Memory". Any other
 * value, including empty, leaves caching off. Redis is dialled with retry.
 */
func RegisterCache(ctx context.Context, c *Container, cfg *config.Config, logger *logging.Logger) error {
	switch cfg.Cache.Provider {
	case cache.ProviderRedis:
		redisCache, err := connect(ctx, logger, DefaultConnectPolicy(), CapabilityCache, func(ctx context.Context) (*cache.RedisCache, error) {
			client, err := cache.DialRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
			if err != nil {
				return nil, err
			}
			return cache.NewRedisCache(client, redisKeyPrefix), nil
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis cache: %w", err)
		}
		if err := register(c, CapabilityCache, redisCache, redisCache.Provider(), logger); err != nil {
			_ = redisCache.Close()
			return err
		}
		return nil
	case cache.ProviderMemory:
		memory := cache.NewMemoryCache()
		return register(c, CapabilityCache, memory, memory.Provider(), logger)
	default:
		logger.Info("Node path cache disabled", map[string]interface{}{
			"provider": cfg.Cache.Provider,
		})
		return nil
	}
}

func register(c *Container, capability string, impl interface{}, provider string, logger *logging.Logger) error {
	if err := c.Register(capability, impl); err != nil {
		return err
	}
	logger.Info("Provider registered", map[string]interface{}{
		"capability": capability,
		"provider":   provider,
	})
	return nil
}
