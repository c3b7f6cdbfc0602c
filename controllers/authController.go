package controllers

import (
	"net/mail"
	"time"

	"montoit-backend/database"
	"montoit-backend/middlewares"
	"montoit-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RegisterDTO covers owner/tenant signup; agency signup additionally creates
// the Agency record with the new user as its acting user.
type RegisterDTO struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=tenant owner agency"`

	// Agency fields, required when role=agency
	AgencyName    string `json:"agency_name" validate:"required_if=Role agency"`
	AgencyAddress string `json:"agency_address" validate:"required_if=Role agency"`
	AgencyCity    string `json:"agency_city" validate:"required_if=Role agency"`
	AgencyCountry string `json:"agency_country" validate:"required_if=Role agency"`
	AgencyZip     string `json:"agency_zip" validate:"required_if=Role agency"`
	AgencyEmail   string `json:"agency_email" validate:"omitempty,email"`
	AgencyLicense string `json:"agency_license"`
}

func Register(c *fiber.Ctx) error {
	var dto RegisterDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	var mailExist models.User
	database.DB.Where("email = ?", dto.Email).First(&mailExist)
	if mailExist.Email != "" {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "email already exists",
		})
	}

	tx := database.DB.Begin()

	user := models.User{
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Email:     dto.Email,
		Phone:     dto.Phone,
		Role:      dto.Role,
	}
	user.SetPassword(dto.Password)
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create user",
			"error":   err.Error(),
		})
	}

	var agency *models.Agency
	if dto.Role == models.RoleAgency {
		agencyEmail := dto.AgencyEmail
		if agencyEmail == "" {
			agencyEmail = dto.Email
		}
		agency = &models.Agency{
			Name:    dto.AgencyName,
			Address: dto.AgencyAddress,
			City:    dto.AgencyCity,
			Country: dto.AgencyCountry,
			Zip:     dto.AgencyZip,
			Email:   agencyEmail,
			Phone:   dto.Phone,
			License: dto.AgencyLicense,
			UserId:  user.Id,
		}
		if err := tx.Create(agency).Error; err != nil {
			tx.Rollback()
			c.Status(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"message": "Could not create agency",
				"error":   err.Error(),
			})
		}
	}

	tx.Commit()

	resp := fiber.Map{"user": user}
	if agency != nil {
		resp["agency"] = agency
	}
	return c.JSON(resp)
}

func Login(c *fiber.Ctx) error {
	var data map[string]string
	if err := c.BodyParser(&data); err != nil {
		return err
	}

	var user models.User

	if _, err := mail.ParseAddress(data["email"]); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Invalid email format",
		})
	}

	database.DB.Where("email = ?", data["email"]).First(&user)

	if _, err := uuid.Parse(user.Id); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	}

	if err := user.ComparePassword(data["password"]); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	}

	token, err := middlewares.GenerateJWT(user.Id, user.Role)
	if err != nil {
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"message": "Could not issue token",
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.Id,
			"name":  user.FirstName + " " + user.LastName,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func Logout(c *fiber.Ctx) error {
	cookie := fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	}
	c.Cookie(&cookie)
	return c.JSON(fiber.Map{
		"message": "success",
	})
}
