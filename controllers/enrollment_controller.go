package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coursedrip/models"
)

type EnrollmentController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewEnrollmentController(db *gorm.DB, logger *log.Logger) *EnrollmentController {
	return &EnrollmentController{DB: db, Logger: logger}
}

// GetEnrollments lists enrollments, filterable by email and status
func (ec *EnrollmentController) GetEnrollments(c *fiber.Ctx) error {
	query := ec.DB.Model(&models.Enrollment{}).Order("enrollments.created_at desc").Limit(200)

	if status := c.Query("status"); status != "" {
		query = query.Where("enrollments.status = ?", status)
	}
	if email := c.Query("email"); email != "" {
		query = query.Joins("JOIN users ON users.id = enrollments.user_id").
			Where("users.email = ?", email)
	}

	var enrollments []models.Enrollment
	if err := query.Find(&enrollments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load enrollments",
		})
	}

	return c.JSON(fiber.Map{"enrollments": enrollments})
}

// GetEnrollment returns one enrollment with its full send history
func (ec *EnrollmentController) GetEnrollment(c *fiber.Ctx) error {
	var enrollment models.Enrollment
	err := ec.DB.Preload("Sends", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order asc")
	}).First(&enrollment, c.Params("id")).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Enrollment not found",
		})
	}

	var sequence models.Sequence
	if err := ec.DB.First(&sequence, enrollment.SequenceID).Error; err == nil {
		return c.JSON(fiber.Map{
			"enrollment": enrollment,
			"sequence":   fiber.Map{"slug": sequence.Slug, "name": sequence.Name},
		})
	}
	return c.JSON(fiber.Map{"enrollment": enrollment})
}
