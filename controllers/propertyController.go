package controllers

import (
	"montoit-backend/database"
	"montoit-backend/middlewares"
	"montoit-backend/models"
	"montoit-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CreatePropertyDTO struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Address     string  `json:"address" validate:"required"`
	City        string  `json:"city" validate:"required"`
	Zip         string  `json:"zip" validate:"required"`
	MonthlyRent float64 `json:"monthly_rent" validate:"gte=0"`
	Rooms       int     `json:"rooms" validate:"gte=0"`
	Surface     float64 `json:"surface" validate:"gte=0"`
	Published   bool    `json:"published"`
}

func CreateProperty(c *fiber.Ctx) error {
	var dto CreatePropertyDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	ownerID, _ := c.Locals("userID").(string)

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	property := models.Property{
		Title:       dto.Title,
		Description: dto.Description,
		Address:     dto.Address,
		City:        dto.City,
		Zip:         dto.Zip,
		MonthlyRent: dto.MonthlyRent,
		Rooms:       dto.Rooms,
		Surface:     dto.Surface,
		OwnerId:     ownerID,
		Published:   dto.Published,
	}
	if err := db.Create(&property).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create property")
	}
	return c.Status(fiber.StatusCreated).JSON(property)
}

func GetProperties(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	q := db.Model(&models.Property{})
	if city := c.Query("city"); city != "" {
		q = q.Where("city = ?", city)
	}
	if c.Query("mine") == "true" {
		ownerID, _ := c.Locals("userID").(string)
		q = q.Where("owner_id = ?", ownerID)
	} else {
		q = q.Where("published = ?", true)
	}

	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	var properties []models.Property
	if err := q.Limit(limit).Offset(offset).Order("title").Find(&properties).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list properties")
	}
	return c.JSON(properties)
}

type UpdatePropertyDTO struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	Zip         *string  `json:"zip"`
	MonthlyRent *float64 `json:"monthly_rent" validate:"omitempty,gte=0"`
	Rooms       *int     `json:"rooms" validate:"omitempty,gte=0"`
	Surface     *float64 `json:"surface" validate:"omitempty,gte=0"`
	Published   *bool    `json:"published"`
}

func UpdateProperty(c *fiber.Ctx) error {
	var dto UpdatePropertyDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	ownerID, _ := c.Locals("userID").(string)

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var property models.Property
	if err := db.Where("id = ?", c.Params("id")).First(&property).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "property not found")
	}
	if property.OwnerId != ownerID {
		return fiber.NewError(fiber.StatusForbidden, "only the owner can update a property")
	}

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) > 0 {
		if err := db.Model(&property).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update property")
		}
	}
	return c.JSON(property)
}

func GetProperty(c *fiber.Ctx) error {
	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var property models.Property
	if err := db.Where("id = ?", c.Params("id")).First(&property).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "property not found")
	}
	return c.JSON(property)
}
