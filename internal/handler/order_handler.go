package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/NekoNeko6996/cusc-edx-api/internal/usecase"

	"github.com/labstack/echo/v4"
)

var (
	errNotScalar    = errors.New("not a string or number")
	errTrailingData = errors.New("data after the JSON value")
)

type OrderHandler struct {
	orders *usecase.OrderUsecase
	status *usecase.OrderStatusUsecase
}

func NewOrderHandler(orders *usecase.OrderUsecase, status *usecase.OrderStatusUsecase) *OrderHandler {
	return &OrderHandler{orders: orders, status: status}
}

// user_id and amount may be sent as JSON numbers or strings.
// Numbers inside extra_data arrive as json.Number.
type OrderCreateRequest struct {
	UserID          json.RawMessage `json:"user_id"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	CourseID        string          `json:"course_id"`
	Amount          json.RawMessage `json:"amount"`
	Currency        string          `json:"currency"`
	ExternalOrderID *string         `json:"external_order_id"`
	ExtraData       map[string]any  `json:"extra_data"`
}

type OrderStatusRequest struct {
	Status      string          `json:"status"`
	PaymentInfo json.RawMessage `json:"payment_info"`
}

func (h *OrderHandler) RegisterRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/orders/create/", h.create, auth)
	g.GET("/orders/", h.list)
	g.GET("/orders/:id/", h.detail)
	g.POST("/orders/:id/status/", h.updateStatus, auth)
}

func (h *OrderHandler) create(c echo.Context) error {
	var req OrderCreateRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}

	userIDText, err := rawScalar(req.UserID)
	if err != nil {
		return badRequest(c, "Invalid user_id")
	}
	userID, err := parseOptionalID(userIDText)
	if err != nil {
		return badRequest(c, "Invalid user_id")
	}

	amount, err := rawScalar(req.Amount)
	if err != nil {
		// handed on as-is so the usecase reports the amount error
		amount = string(req.Amount)
	}

	out, err := h.orders.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{
		UserID:          userID,
		Username:        req.Username,
		Email:           req.Email,
		CourseID:        req.CourseID,
		Amount:          amount,
		Currency:        req.Currency,
		ExternalOrderID: req.ExternalOrderID,
		ExtraData:       req.ExtraData,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, err := parseOptionalID(c.QueryParam("user_id"))
	if err != nil {
		return badRequest(c, "Invalid user_id")
	}

	out, err := h.orders.ListOrders(c.Request().Context(), usecase.ListOrdersInput{
		Status:          c.QueryParam("status"),
		UserID:          userID,
		Username:        c.QueryParam("username"),
		ExternalOrderID: c.QueryParam("external_order_id"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	out, err := h.orders.GetOrder(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	var req OrderStatusRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}

	out, err := h.status.UpdateStatus(c.Request().Context(), id, usecase.UpdateOrderStatusInput{
		Status:      req.Status,
		PaymentInfo: req.PaymentInfo,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// decodeBody reads the request body as one JSON value whatever the
// Content-Type says. Numbers decode as json.Number so large ids stay exact.
func decodeBody(c echo.Context, v any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// rawScalar returns the text of a JSON string or number; absent and null give "".
func rawScalar(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	default:
		return "", errNotScalar
	}
}

// "" and "0" mean no id.
func parseOptionalID(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	return &id, nil
}
