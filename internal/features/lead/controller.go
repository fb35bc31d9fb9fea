package lead

import (
	"errors"
	"io"

	"crm-imobiliario/internal/common/apierror"

	"github.com/gofiber/fiber/v2"
)

type LeadController struct {
	Service LeadService
}

func NewLeadController(service LeadService) *LeadController {
	return &LeadController{Service: service}
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrLeadNotFound):
		return apierror.Respond(c, fiber.StatusNotFound, err)
	case errors.Is(err, ErrUnsupportedFile):
		return apierror.Respond(c, fiber.StatusBadRequest, err)
	default:
		return apierror.Respond(c, fiber.StatusInternalServerError, err)
	}
}

// ListLeads godoc
// @Summary      List leads
// @Tags         leads
// @Produce      json
// @Success      200  {array}  Lead
// @Router       /leads [get]
func (ctrl *LeadController) ListLeads(c *fiber.Ctx) error {
	leads, err := ctrl.Service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(leads)
}

// ListCustomers godoc
// @Summary      List closed leads (customers)
// @Tags         leads
// @Produce      json
// @Success      200  {array}  Lead
// @Router       /customers [get]
func (ctrl *LeadController) ListCustomers(c *fiber.Ctx) error {
	customers, err := ctrl.Service.ListCustomers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(customers)
}

func (ctrl *LeadController) GetLead(c *fiber.Ctx) error {
	lead, err := ctrl.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lead)
}

// CreateLead godoc
// @Summary      Create lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Param        lead  body  Lead  true  "Lead"
// @Success      201  {object}  Lead
// @Failure      400  {object}  apierror.StructuredError
// @Router       /leads [post]
func (ctrl *LeadController) CreateLead(c *fiber.Ctx) error {
	var lead Lead
	if err := c.BodyParser(&lead); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	created, err := ctrl.Service.Create(c.UserContext(), &lead)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (ctrl *LeadController) UpdateLead(c *fiber.Ctx) error {
	var req UpdateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updated, err := ctrl.Service.Update(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (ctrl *LeadController) FinalizeLead(c *fiber.Ctx) error {
	updated, err := ctrl.Service.Finalize(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(updated)
}

func (ctrl *LeadController) DeleteLead(c *fiber.Ctx) error {
	if err := ctrl.Service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (ctrl *LeadController) ListInteractions(c *fiber.Ctx) error {
	interactions, err := ctrl.Service.ListInteractions(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(interactions)
}

func (ctrl *LeadController) AddInteraction(c *fiber.Ctx) error {
	var body struct {
		Tipo      string `json:"tipo"`
		Descricao string `json:"descricao"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.RecordInteraction(c.UserContext(), c.Params("id"), body.Tipo, body.Descricao); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// ImportLeads godoc
// @Summary      Import leads from a spreadsheet
// @Tags         leads
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  ".xlsx or .csv file"
// @Success      200  {object}  ImportResult
// @Router       /leads/import [post]
func (ctrl *LeadController) ImportLeads(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	result, err := ctrl.Service.Import(c.UserContext(), fileHeader.Filename, data)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

func (ctrl *LeadController) ExportLeads(c *fiber.Ctx) error {
	data, err := ctrl.Service.Export(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename=leads.xlsx")
	return c.Send(data)
}
