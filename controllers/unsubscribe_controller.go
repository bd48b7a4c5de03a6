package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursedrip/models"
	"coursedrip/sequencer"
	"coursedrip/utils"
)

type UnsubscribeController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Enroller *sequencer.Enroller
}

func NewUnsubscribeController(db *gorm.DB, logger *log.Logger) *UnsubscribeController {
	return &UnsubscribeController{
		DB:       db,
		Logger:   logger,
		Enroller: sequencer.NewEnroller(db, logger),
	}
}

// UnsubscribeByToken handles the public one-click link from email footers.
// The token is the AES-encrypted email address, so the link needs no login.
func (uc *UnsubscribeController) UnsubscribeByToken(c *fiber.Ctx) error {
	email, err := utils.DecryptToken(c.Params("token"))
	if err != nil || email == "" {
		return c.Status(fiber.StatusBadRequest).SendString("This unsubscribe link is invalid or expired.")
	}

	var user models.User
	if err := uc.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Do not reveal whether the address exists
			return uc.confirmationPage(c)
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
	}

	if err := uc.Enroller.Unsubscribe(user.ID, "unsubscribe link", "link", c.IP(), c.Get("User-Agent")); err != nil {
		LogError("unsubscribe_link", err, map[string]interface{}{"user_id": user.ID})
		return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
	}

	return uc.confirmationPage(c)
}

func (uc *UnsubscribeController) confirmationPage(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; max-width: 600px; margin: 60px auto; color: #333;">
	<h2>You're unsubscribed</h2>
	<p>You won't receive any more emails from us. If this was a mistake, reply to any previous email and we'll sort it out.</p>
</body>
</html>`)
}

type unsubscribeInput struct {
	Email  string `json:"email" validate:"required,email"`
	Reason string `json:"reason"`
}

// Unsubscribe is the admin/API variant for manual opt-outs
func (uc *UnsubscribeController) Unsubscribe(c *fiber.Ctx) error {
	var input unsubscribeInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	if err := uc.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if err := uc.Enroller.Unsubscribe(user.ID, input.Reason, "api", c.IP(), c.Get("User-Agent")); err != nil {
		LogError("unsubscribe_api", err, map[string]interface{}{"user_id": user.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to unsubscribe user",
		})
	}

	return c.JSON(fiber.Map{
		"message": "User unsubscribed",
	})
}
