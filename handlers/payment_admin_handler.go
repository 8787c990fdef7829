package handlers

import (
	"github.com/altairlabs/payhub/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChannelRequest struct {
	Code        string   `json:"code" validate:"required,max=50"`
	Name        string   `json:"name" validate:"required,max=100"`
	PluginCode  string   `json:"plugin_code" validate:"required,max=50"`
	Status      string   `json:"status" validate:"omitempty,oneof=active inactive maintenance"`
	Priority    int      `json:"priority"`
	Currencies  []string `json:"currencies"`
	MinAmount   string   `json:"min_amount,omitempty"`
	MaxAmount   string   `json:"max_amount,omitempty"`
	FeeRate     string   `json:"fee_rate,omitempty"`
	Description string   `json:"description,omitempty"`
}

func (req *ChannelRequest) apply(ch *models.PaymentChannel) error {
	ch.Code = req.Code
	ch.Name = req.Name
	ch.PluginCode = req.PluginCode
	if req.Status != "" {
		ch.Status = req.Status
	} else if ch.Status == "" {
		ch.Status = models.ChannelStatusActive
	}
	ch.Priority = req.Priority
	ch.SupportedCurrencies = models.JoinSet(req.Currencies)
	ch.Description = req.Description

	for _, f := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{req.MinAmount, &ch.MinAmount},
		{req.MaxAmount, &ch.MaxAmount},
		{req.FeeRate, &ch.FeeRate},
	} {
		if f.raw == "" {
			continue
		}
		parsed, err := decimal.NewFromString(f.raw)
		if err != nil {
			return err
		}
		*f.dest = parsed
	}
	return nil
}

func ListChannelsAdmin(c *fiber.Ctx) error {
	channels, err := paymentResolver.ListChannels()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(channels)
}

func CreateChannelAdmin(c *fiber.Ctx) error {
	var req ChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var ch models.PaymentChannel
	if err := req.apply(&ch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount or fee rate"})
	}
	if err := paymentResolver.CreateChannel(&ch); err != nil {
		return paymentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ch)
}

func UpdateChannelAdmin(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("channelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid channel ID"})
	}

	ch, err := paymentResolver.GetChannelByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Channel not found"})
	}

	var req ChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	updated := *ch
	if err := req.apply(&updated); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid amount or fee rate"})
	}
	if err := paymentResolver.UpdateChannel(&updated); err != nil {
		return paymentError(c, err)
	}
	return c.JSON(updated)
}

func DeleteChannelAdmin(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("channelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid channel ID"})
	}
	if err := paymentResolver.DeleteChannel(id); err != nil {
		return paymentError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Channel deleted"})
}

func GetChannelConfigAdmin(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("channelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid channel ID"})
	}
	rows, err := paymentResolver.ListConfig(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(rows)
}

type ConfigEntryRequest struct {
	Key       string `json:"key" validate:"required,max=100"`
	Value     string `json:"value" validate:"required"`
	Encrypted bool   `json:"encrypted"`
}

func SetChannelConfigAdmin(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("channelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid channel ID"})
	}

	var req ConfigEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := paymentResolver.SetConfigValue(id, req.Key, req.Value, req.Encrypted); err != nil {
		return paymentError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Config saved"})
}

func DeleteChannelConfigAdmin(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("channelId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid channel ID"})
	}
	if err := paymentResolver.DeleteConfigValue(id, c.Params("key")); err != nil {
		return paymentError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Config deleted"})
}

func ListPluginsAdmin(c *fiber.Ctx) error {
	plugins, err := paymentRegistry.ListPlugins()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(plugins)
}

type PluginStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func UpdatePluginStatusAdmin(c *fiber.Ctx) error {
	var req PluginStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := paymentRegistry.SetPluginStatus(c.Params("code"), req.Status); err != nil {
		return paymentError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Plugin status updated"})
}

func ReloadPluginAdmin(c *fiber.Ctx) error {
	if err := paymentRegistry.ReloadPlugin(c.Params("code")); err != nil {
		return paymentError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Plugin reloaded"})
}
