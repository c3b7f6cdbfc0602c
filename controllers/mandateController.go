package controllers

import (
	"encoding/json"
	"errors"

	"montoit-backend/database"
	"montoit-backend/middlewares"
	"montoit-backend/models"
	"montoit-backend/signature"
	"montoit-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// Signer is the mandate signature engine, wired in main.
var Signer *signature.Engine

type CreateMandateDTO struct {
	PropertyId     string         `json:"property_id" validate:"required,uuid4"`
	AgencyId       string         `json:"agency_id" validate:"required,uuid4"`
	CommissionRate float64        `json:"commission_rate" validate:"gte=0,lte=100"`
	Exclusive      bool           `json:"exclusive"`
	Metadata       map[string]any `json:"metadata"`
}

type SignMandateDTO struct {
	Role   string `json:"role" validate:"required,oneof=owner agency"`
	Method string `json:"method" validate:"required,oneof=simple certified"`
	OTP    string `json:"otp" validate:"required_if=Method certified"`
}

// CreateMandate opens a draft mandate between the caller (property owner)
// and an agency. Signatures happen later through SignMandate.
func CreateMandate(c *fiber.Ctx) error {
	var dto CreateMandateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	callerID, _ := c.Locals("userID").(string)

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var property models.Property
	if err := db.Where("id = ?", dto.PropertyId).First(&property).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "property not found")
	}
	if property.OwnerId != callerID {
		return fiber.NewError(fiber.StatusForbidden, "only the property owner can open a mandate")
	}

	var agency models.Agency
	if err := db.Where("id = ?", dto.AgencyId).First(&agency).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "agency not found")
	}

	mandate := models.Mandate{
		PropertyId:     property.Id,
		OwnerId:        property.OwnerId,
		AgencyId:       agency.Id,
		CommissionRate: dto.CommissionRate,
		Exclusive:      dto.Exclusive,
		Status:         models.MandateDraft,
	}
	if len(dto.Metadata) > 0 {
		blob, err := json.Marshal(dto.Metadata)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid metadata")
		}
		mandate.Metadata = datatypes.JSON(blob)
	}
	if err := db.Create(&mandate).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create mandate")
	}
	return c.Status(fiber.StatusCreated).JSON(mandate)
}

// GetMandates lists mandates where the caller is a signing party.
func GetMandates(c *fiber.Ctx) error {
	callerID, _ := c.Locals("userID").(string)

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	limit := utils.ParseIntDefault(c.Query("limit"), 50)
	offset := utils.ParseIntDefault(c.Query("offset"), 0)

	var mandates []models.Mandate
	q := db.Model(&models.Mandate{}).Select("mandates.*").
		Preload("Property").Preload("Agency").
		Joins("LEFT JOIN agencies ON agencies.id = mandates.agency_id").
		Where("mandates.owner_id = ? OR agencies.user_id = ?", callerID, callerID)
	if status := c.Query("status"); status != "" {
		q = q.Where("mandates.status = ?", status)
	}
	if err := q.Limit(limit).Offset(offset).Order("mandates.created_at DESC").Find(&mandates).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list mandates")
	}
	return c.JSON(mandates)
}

func GetMandate(c *fiber.Ctx) error {
	callerID, _ := c.Locals("userID").(string)

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var mandate models.Mandate
	if err := db.Preload("Property").Preload("Agency").Preload("Agency.User").
		Where("id = ?", c.Params("id")).First(&mandate).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "mandate not found")
	}
	if !isParty(&mandate, callerID) {
		return fiber.NewError(fiber.StatusForbidden, "not a party of this mandate")
	}
	return c.JSON(mandate)
}

// SignMandate is the core operation: one party signs the mandate, simple or
// certified. An already-signed party gets an idempotent no-op response.
func SignMandate(c *fiber.Ctx) error {
	var dto SignMandateDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	callerID, _ := c.Locals("userID").(string)

	result, err := Signer.Sign(c.UserContext(), signature.SignCommand{
		MandateID: c.Params("id"),
		CallerID:  callerID,
		Role:      signature.Role(dto.Role),
		Method:    signature.Method(dto.Method),
		OTP:       dto.OTP,
		Origin:    c.IP(),
	})
	if errors.Is(err, signature.ErrAlreadySigned) {
		if result == nil {
			result = &signature.SignResult{AlreadySigned: true}
		}
		return c.JSON(result)
	}
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetMandateAttempts returns the audit trail for a mandate.
func GetMandateAttempts(c *fiber.Ctx) error {
	callerID, _ := c.Locals("userID").(string)

	db, err := database.FromCtx(c)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var mandate models.Mandate
	if err := db.Preload("Agency").Where("id = ?", c.Params("id")).First(&mandate).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "mandate not found")
	}
	if !isParty(&mandate, callerID) {
		return fiber.NewError(fiber.StatusForbidden, "not a party of this mandate")
	}

	var attempts []models.SignatureAttemptLog
	if err := db.Where("mandate_id = ?", mandate.Id).
		Order("created_at").Find(&attempts).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list signature attempts")
	}
	return c.JSON(attempts)
}

func isParty(m *models.Mandate, callerID string) bool {
	return callerID != "" && (m.OwnerId == callerID || m.Agency.UserId == callerID)
}
