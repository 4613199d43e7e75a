package handler

import (
	"net/http"
	"workforce-api/common"
	"workforce-api/logger"
	"workforce-api/model"
	"workforce-api/service"

	"github.com/sirupsen/logrus"
)

type EmployeeHandler struct {
	service *service.EmployeeService
}

func NewEmployeeHandler(service *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{service: service}
}

// ListEmployees godoc
// @Summary      List employees
// @Tags         employees
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   model.Employee
// @Router       /api/employees [get]
func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) *common.AppError {
	employees, err := h.service.List(r.Context())
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve employees", err)
	}
	if employees == nil {
		employees = []*model.Employee{}
	}

	common.WriteJSON(w, http.StatusOK, employees)
	return nil
}

// CreateEmployee godoc
// @Summary      Create an employee
// @Description  Identical submissions inside the duplicate window are rejected
// @Tags         employees
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        employee  body      model.EmployeeRequest  true  "Employee"
// @Success      201       {object}  model.Employee
// @Failure      409       {object}  common.AppError
// @Failure      429       {object}  common.AppError
// @Router       /api/employees [post]
func (h *EmployeeHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.EmployeeRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	actor := actorFrom(r)
	logger.Log.WithFields(logrus.Fields{
		"employee_code": req.EmployeeCode,
		"ip_address":    actor.IPAddress,
	}).Info("Create employee request received")

	employee, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		return serviceError(err, "Could not create employee")
	}

	common.WriteJSON(w, http.StatusCreated, employee)
	return nil
}

// UpdateEmployee godoc
// @Summary      Update an employee
// @Tags         employees
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id        path      string                 true  "Employee ID"
// @Param        employee  body      model.EmployeeRequest  true  "Employee"
// @Success      200       {object}  model.Employee
// @Failure      404       {object}  common.AppError
// @Failure      409       {object}  common.AppError
// @Router       /api/employees/{id} [put]
func (h *EmployeeHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.EmployeeRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	employee, err := h.service.Update(r.Context(), actorFrom(r), r.PathValue("id"), req)
	if err != nil {
		return serviceError(err, "Could not update employee")
	}

	common.WriteJSON(w, http.StatusOK, employee)
	return nil
}

// DeleteEmployee godoc
// @Summary      Delete an employee
// @Tags         employees
// @Security     BearerAuth
// @Param        id  path  string  true  "Employee ID"
// @Success      204
// @Failure      404  {object}  common.AppError
// @Router       /api/employees/{id} [delete]
func (h *EmployeeHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) *common.AppError {
	if err := h.service.Delete(r.Context(), actorFrom(r), r.PathValue("id")); err != nil {
		return serviceError(err, "Could not delete employee")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
