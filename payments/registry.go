package payments

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/altairlabs/payhub/models"
	"gorm.io/gorm"
)

// Registry is the startup-time plugin catalog. Adapters are registered
// explicitly by code; SyncPlugins mirrors the registered set into the
// payment_plugins table, and LoadActive builds the process-wide
// instance cache. Hot reload swaps the cached instance behind the lock
// rather than restarting the process.
type Registry struct {
	db *gorm.DB

	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Provider
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:        db,
		factories: make(map[string]Factory),
		instances: make(map[string]Provider),
	}
}

// Register adds an adapter factory under a unique code. Called once
// per adapter during bootstrap, before SyncPlugins.
func (r *Registry) Register(code string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if code == "" || factory == nil {
		return fmt.Errorf("plugin registration requires a code and a factory")
	}
	if _, exists := r.factories[code]; exists {
		return fmt.Errorf("plugin %q is already registered", code)
	}
	r.factories[code] = factory
	return nil
}

// Unregister removes an adapter from the catalog and destroys any live
// instance. The catalog row is marked inactive, not deleted, since
// channels may still reference it.
func (r *Registry) Unregister(code string) error {
	r.mu.Lock()
	if inst, ok := r.instances[code]; ok {
		destroyInstance(code, inst)
		delete(r.instances, code)
	}
	delete(r.factories, code)
	r.mu.Unlock()

	return r.db.Model(&models.PaymentPlugin{}).
		Where("code = ?", code).
		Update("status", models.PluginStatusInactive).Error
}

// SyncPlugins is the discovery pass: every registered factory gets a
// catalog row, created on first sight and refreshed with the adapter's
// self-described info afterwards. A factory whose instance fails
// validation is recorded with status=error and skipped; one bad
// adapter never blocks the others.
func (r *Registry) SyncPlugins() error {
	r.mu.RLock()
	codes := make([]string, 0, len(r.factories))
	for code := range r.factories {
		codes = append(codes, code)
	}
	r.mu.RUnlock()
	sort.Strings(codes)

	for _, code := range codes {
		if err := r.syncOne(code); err != nil {
			log.Printf("[payments] plugin %s failed validation: %v", code, err)
			r.markError(code, err)
		}
	}
	return nil
}

func (r *Registry) syncOne(code string) error {
	r.mu.RLock()
	factory := r.factories[code]
	r.mu.RUnlock()

	inst := factory()
	if inst == nil {
		return fmt.Errorf("factory returned nil provider")
	}
	info := inst.Info()
	if info.Name == "" {
		return fmt.Errorf("provider info is missing a name")
	}

	var row models.PaymentPlugin
	err := r.db.Where("code = ?", code).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		row = models.PaymentPlugin{
			Code:   code,
			Status: models.PluginStatusActive,
			Source: "builtin:" + code,
		}
	} else if err != nil {
		return err
	}

	row.Name = info.Name
	row.Version = info.Version
	row.SupportedMethods = models.JoinSet(info.Methods)
	row.SupportedCurrencies = models.JoinSet(info.Currencies)
	if row.Status == models.PluginStatusError {
		// A previously failing adapter that now validates is restored.
		row.Status = models.PluginStatusActive
		row.LastError = nil
	}
	return r.db.Save(&row).Error
}

// LoadActive instantiates every active plugin in descending priority
// order and fills the instance cache. A load failure marks that plugin
// error and moves on; the plugin stays absent from the cache and is
// retried lazily on next access.
func (r *Registry) LoadActive() {
	var rows []models.PaymentPlugin
	if err := r.db.Where("status = ?", models.PluginStatusActive).
		Order("priority desc").Find(&rows).Error; err != nil {
		log.Printf("[payments] failed to list active plugins: %v", err)
		return
	}

	for i := range rows {
		if _, err := r.load(&rows[i]); err != nil {
			log.Printf("[payments] failed to load plugin %s: %v", rows[i].Code, err)
		}
	}
}

// GetProvider returns the cached adapter instance for a plugin code,
// lazily loading it when absent.
func (r *Registry) GetProvider(code string) (Provider, error) {
	r.mu.RLock()
	inst, ok := r.instances[code]
	r.mu.RUnlock()
	if ok {
		return inst, nil
	}

	var row models.PaymentPlugin
	if err := r.db.Where("code = ?", code).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPluginNotFound
		}
		return nil, err
	}
	if row.Status != models.PluginStatusActive {
		return nil, ErrPluginInactive
	}
	return r.load(&row)
}

func (r *Registry) load(row *models.PaymentPlugin) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[row.Code]; ok {
		return inst, nil
	}

	factory, ok := r.factories[row.Code]
	if !ok {
		err := fmt.Errorf("no factory registered for plugin %s", row.Code)
		r.markErrorLocked(row.Code, err)
		return nil, ErrPluginNotFound
	}

	inst := factory()
	if init, ok := inst.(Initializer); ok {
		if err := init.Initialize(); err != nil {
			r.markErrorLocked(row.Code, err)
			return nil, err
		}
	}

	r.instances[row.Code] = inst
	now := time.Now()
	r.db.Model(&models.PaymentPlugin{}).Where("code = ?", row.Code).
		Updates(map[string]interface{}{"loaded_at": now, "last_error": nil})
	return inst, nil
}

// ReloadPlugin tears down the live instance and builds a fresh one, so
// an adapter swap takes effect without a process restart.
func (r *Registry) ReloadPlugin(code string) error {
	r.mu.Lock()
	if inst, ok := r.instances[code]; ok {
		destroyInstance(code, inst)
		delete(r.instances, code)
	}
	r.mu.Unlock()

	_, err := r.GetProvider(code)
	return err
}

// SetPluginStatus updates the catalog status and evicts the instance
// when the plugin is no longer active.
func (r *Registry) SetPluginStatus(code, status string) error {
	res := r.db.Model(&models.PaymentPlugin{}).
		Where("code = ?", code).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPluginNotFound
	}

	if status != models.PluginStatusActive {
		r.mu.Lock()
		if inst, ok := r.instances[code]; ok {
			destroyInstance(code, inst)
			delete(r.instances, code)
		}
		r.mu.Unlock()
	}
	return nil
}

func (r *Registry) ListPlugins() ([]models.PaymentPlugin, error) {
	var rows []models.PaymentPlugin
	err := r.db.Order("priority desc, code asc").Find(&rows).Error
	return rows, err
}

// IsActive reports whether a plugin exists and is active, without
// forcing a load.
func (r *Registry) IsActive(code string) bool {
	var count int64
	r.db.Model(&models.PaymentPlugin{}).
		Where("code = ? AND status = ?", code, models.PluginStatusActive).
		Count(&count)
	return count > 0
}

// markError records a failure on the catalog row, creating the row
// when the adapter never validated far enough to get one.
func (r *Registry) markError(code string, cause error) {
	var row models.PaymentPlugin
	err := r.db.Where("code = ?", code).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		row = models.PaymentPlugin{Code: code, Name: code, Source: "builtin:" + code}
	} else if err != nil {
		log.Printf("[payments] failed to record plugin error for %s: %v", code, err)
		return
	}
	msg := cause.Error()
	row.Status = models.PluginStatusError
	row.LastError = &msg
	if err := r.db.Save(&row).Error; err != nil {
		log.Printf("[payments] failed to record plugin error for %s: %v", code, err)
	}
}

func (r *Registry) markErrorLocked(code string, cause error) {
	msg := cause.Error()
	r.db.Model(&models.PaymentPlugin{}).Where("code = ?", code).
		Updates(map[string]interface{}{
			"status":     models.PluginStatusError,
			"last_error": msg,
		})
}

func destroyInstance(code string, inst Provider) {
	if d, ok := inst.(Destroyer); ok {
		if err := d.Destroy(); err != nil {
			log.Printf("[payments] plugin %s destroy hook failed: %v", code, err)
		}
	}
}
