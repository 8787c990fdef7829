package payments

import (
	"log"
	"sync"

	"github.com/altairlabs/payhub/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// ResolvedChannel is a channel plus its decrypted config, handed to
// adapters on every call.
type ResolvedChannel struct {
	Channel models.PaymentChannel
	config  map[string]string
}

func NewResolvedChannel(ch models.PaymentChannel, config map[string]string) *ResolvedChannel {
	if config == nil {
		config = make(map[string]string)
	}
	return &ResolvedChannel{Channel: ch, config: config}
}

func (rc *ResolvedChannel) GetString(key, fallback string) string {
	if v, ok := rc.config[key]; ok {
		return v
	}
	return fallback
}

func (rc *ResolvedChannel) GetInt(key string, fallback int) int {
	if v, ok := rc.config[key]; ok {
		return cast.ToInt(v)
	}
	return fallback
}

func (rc *ResolvedChannel) GetBool(key string, fallback bool) bool {
	if v, ok := rc.config[key]; ok {
		return cast.ToBool(v)
	}
	return fallback
}

// ChannelFilter narrows candidate channels during selection. A zero
// field means "no constraint".
type ChannelFilter struct {
	Currency    string
	Amount      decimal.Decimal
	Method      string
	ChannelCode string
}

// Resolver owns channel records and their config values. It keeps two
// caches (channel-by-id and config-by-channel) holding only decrypted
// values; both are invalidated on every write to the underlying rows.
type Resolver struct {
	db     *gorm.DB
	cipher *ConfigCipher

	mu       sync.RWMutex
	channels map[uuid.UUID]*models.PaymentChannel
	configs  map[uuid.UUID]map[string]string
}

func NewResolver(db *gorm.DB, cipher *ConfigCipher) *Resolver {
	return &Resolver{
		db:       db,
		cipher:   cipher,
		channels: make(map[uuid.UUID]*models.PaymentChannel),
		configs:  make(map[uuid.UUID]map[string]string),
	}
}

func (r *Resolver) GetChannelByID(id uuid.UUID) (*models.PaymentChannel, error) {
	r.mu.RLock()
	if ch, ok := r.channels[id]; ok {
		r.mu.RUnlock()
		return ch, nil
	}
	r.mu.RUnlock()

	var ch models.PaymentChannel
	if err := r.db.Where("id = ?", id).First(&ch).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrChannelUnavailable
		}
		return nil, err
	}

	r.mu.Lock()
	r.channels[ch.ID] = &ch
	r.mu.Unlock()
	return &ch, nil
}

func (r *Resolver) GetChannelByCode(code string) (*models.PaymentChannel, error) {
	var ch models.PaymentChannel
	if err := r.db.Where("code = ?", code).First(&ch).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrChannelUnavailable
		}
		return nil, err
	}

	r.mu.Lock()
	r.channels[ch.ID] = &ch
	r.mu.Unlock()
	return &ch, nil
}

// ResolveChannel loads a channel by code together with its full
// decrypted config map.
func (r *Resolver) ResolveChannel(code string) (*ResolvedChannel, error) {
	ch, err := r.GetChannelByCode(code)
	if err != nil {
		return nil, err
	}
	cfg, err := r.channelConfig(ch.ID)
	if err != nil {
		return nil, err
	}
	return &ResolvedChannel{Channel: *ch, config: cfg}, nil
}

// GetConfigValue looks up one config value for a channel. A missing
// key yields the caller-supplied fallback, not an error.
func (r *Resolver) GetConfigValue(channelID uuid.UUID, key, fallback string) (string, error) {
	cfg, err := r.channelConfig(channelID)
	if err != nil {
		return "", err
	}
	if v, ok := cfg[key]; ok {
		return v, nil
	}
	return fallback, nil
}

// SetConfigValue writes a (channel, key) pair, encrypting the value
// when flagged, and invalidates the channel's cached config.
func (r *Resolver) SetConfigValue(channelID uuid.UUID, key, value string, encrypted bool) error {
	stored := value
	if encrypted {
		enc, err := r.cipher.Encrypt(value)
		if err != nil {
			return err
		}
		stored = enc
	}

	var row models.PaymentConfig
	err := r.db.Where("channel_id = ? AND config_key = ?", channelID, key).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		row = models.PaymentConfig{ChannelID: channelID, ConfigKey: key}
	} else if err != nil {
		return err
	}
	row.ConfigValue = stored
	row.IsEncrypted = encrypted
	if err := r.db.Save(&row).Error; err != nil {
		return err
	}

	r.invalidateConfig(channelID)
	return nil
}

func (r *Resolver) DeleteConfigValue(channelID uuid.UUID, key string) error {
	err := r.db.Where("channel_id = ? AND config_key = ?", channelID, key).
		Delete(&models.PaymentConfig{}).Error
	if err != nil {
		return err
	}
	r.invalidateConfig(channelID)
	return nil
}

// ListConfig returns the channel's config entries as stored, with
// encrypted values masked for display.
func (r *Resolver) ListConfig(channelID uuid.UUID) ([]models.PaymentConfig, error) {
	var rows []models.PaymentConfig
	if err := r.db.Where("channel_id = ?", channelID).Order("config_key asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].IsEncrypted {
			rows[i].ConfigValue = "******"
		}
	}
	return rows, nil
}

func (r *Resolver) channelConfig(channelID uuid.UUID) (map[string]string, error) {
	r.mu.RLock()
	if cfg, ok := r.configs[channelID]; ok {
		r.mu.RUnlock()
		return cfg, nil
	}
	r.mu.RUnlock()

	var rows []models.PaymentConfig
	if err := r.db.Where("channel_id = ?", channelID).Find(&rows).Error; err != nil {
		return nil, err
	}

	cfg := make(map[string]string, len(rows))
	for _, row := range rows {
		value := row.ConfigValue
		if row.IsEncrypted {
			plain, err := r.cipher.Decrypt(value)
			if err != nil {
				// Legacy plaintext rows may carry the encrypted flag;
				// degrade to the stored value instead of failing.
				log.Printf("[payments] failed to decrypt config %s for channel %s: %v", row.ConfigKey, channelID, err)
			} else {
				value = plain
			}
		}
		cfg[row.ConfigKey] = value
	}

	r.mu.Lock()
	r.configs[channelID] = cfg
	r.mu.Unlock()
	return cfg, nil
}

// GetAvailableChannels returns eligible channels ordered by priority
// descending (creation order breaks ties). When the filter names an
// explicit channel code, that channel must survive the eligibility
// filter or selection fails with ErrChannelUnavailable.
func (r *Resolver) GetAvailableChannels(filter ChannelFilter) ([]models.PaymentChannel, error) {
	var channels []models.PaymentChannel
	if err := r.db.Where("status = ?", models.ChannelStatusActive).
		Order("priority desc, created_at asc").Find(&channels).Error; err != nil {
		return nil, err
	}

	var plugins []models.PaymentPlugin
	if err := r.db.Where("status = ?", models.PluginStatusActive).Find(&plugins).Error; err != nil {
		return nil, err
	}
	active := make(map[string]*models.PaymentPlugin, len(plugins))
	for i := range plugins {
		active[plugins[i].Code] = &plugins[i]
	}

	eligible := FilterEligibleChannels(channels, active, filter)

	if filter.ChannelCode != "" {
		for _, ch := range eligible {
			if ch.Code == filter.ChannelCode {
				return []models.PaymentChannel{ch}, nil
			}
		}
		return nil, ErrChannelUnavailable
	}
	return eligible, nil
}

// FilterEligibleChannels applies the selection rules to an
// already-ordered candidate list: active owning plugin, currency
// membership, amount inside the closed [min, max] interval, and
// payment-method support on the plugin.
func FilterEligibleChannels(channels []models.PaymentChannel, activePlugins map[string]*models.PaymentPlugin, filter ChannelFilter) []models.PaymentChannel {
	out := make([]models.PaymentChannel, 0, len(channels))
	for _, ch := range channels {
		plugin, ok := activePlugins[ch.PluginCode]
		if !ok {
			continue
		}
		if filter.Currency != "" && !ch.SupportsCurrency(filter.Currency) {
			continue
		}
		if !filter.Amount.IsZero() && !ch.AcceptsAmount(filter.Amount) {
			continue
		}
		if filter.Method != "" && !supportsMethod(plugin, filter.Method) {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func supportsMethod(plugin *models.PaymentPlugin, method string) bool {
	methods := plugin.Methods()
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

// CreateChannel validates the amount interval invariant and stores the
// channel.
func (r *Resolver) CreateChannel(ch *models.PaymentChannel) error {
	if err := validateChannelBounds(ch); err != nil {
		return err
	}
	return r.db.Create(ch).Error
}

func (r *Resolver) UpdateChannel(ch *models.PaymentChannel) error {
	if err := validateChannelBounds(ch); err != nil {
		return err
	}
	if err := r.db.Save(ch).Error; err != nil {
		return err
	}
	r.invalidateChannel(ch.ID)
	return nil
}

// DeleteChannel removes a channel only when no order against it is
// still in a non-terminal state.
func (r *Resolver) DeleteChannel(id uuid.UUID) error {
	var open int64
	err := r.db.Model(&models.PaymentOrder{}).
		Where("channel_id = ? AND status IN ?", id,
			[]string{models.OrderStatusPending, models.OrderStatusProcessing, models.OrderStatusSuccess}).
		Count(&open).Error
	if err != nil {
		return err
	}
	if open > 0 {
		return &ValidationError{Field: "channel", Message: "channel has open orders and cannot be deleted"}
	}

	if err := r.db.Where("channel_id = ?", id).Delete(&models.PaymentConfig{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("id = ?", id).Delete(&models.PaymentChannel{}).Error; err != nil {
		return err
	}
	r.invalidateChannel(id)
	return nil
}

func (r *Resolver) ListChannels() ([]models.PaymentChannel, error) {
	var channels []models.PaymentChannel
	err := r.db.Order("priority desc, created_at asc").Find(&channels).Error
	return channels, err
}

func validateChannelBounds(ch *models.PaymentChannel) error {
	if ch.MaxAmount.IsPositive() && ch.MinAmount.GreaterThan(ch.MaxAmount) {
		return &ValidationError{Field: "min_amount", Message: "min_amount must not exceed max_amount"}
	}
	if ch.FeeRate.IsNegative() || ch.FeeRate.GreaterThan(decimal.NewFromInt(1)) {
		return &ValidationError{Field: "fee_rate", Message: "fee_rate must be a fraction between 0 and 1"}
	}
	return nil
}

func (r *Resolver) invalidateChannel(id uuid.UUID) {
	r.mu.Lock()
	delete(r.channels, id)
	delete(r.configs, id)
	r.mu.Unlock()
}

func (r *Resolver) invalidateConfig(id uuid.UUID) {
	r.mu.Lock()
	delete(r.configs, id)
	r.mu.Unlock()
}
