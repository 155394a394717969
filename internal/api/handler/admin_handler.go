package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type pageParams struct {
	page, size int
}

func readPage(c echo.Context) (pageParams, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return pageParams{}, err
	}
	size, err := queryInt(c, "size")
	if err != nil {
		return pageParams{}, err
	}
	return pageParams{page: page, size: size}, nil
}

// ListUsers returns one page of the user table, filtered by q across all
// pages when q is set.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        page  query     int     false  "1-based page"  default(1)
// @Param        size  query     int     false  "Page size"     default(10)
// @Param        q     query     string  false  "Name or email substring"
// @Success      200   {object}  userPageResponse
// @Failure      401   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Router       /api/admin/users [get]
func (h *Handler) ListUsers(c echo.Context) error {
	p, err := readPage(c)
	if err != nil {
		return err
	}
	svc, err := h.adminService(c)
	if err != nil {
		return err
	}

	res, err := svc.Search(c.Request().Context(), c.QueryParam("q"), p.page, p.size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserPageResponse(res))
}

// FindUserByEmail looks a user up by email.
//
// @Summary      Find user by email
// @Tags         admin
// @Produce      json
// @Param        email  path      string  true  "Email"
// @Success      200    {object}  domain.AdminUser
// @Failure      404    {object}  map[string]any
// @Router       /api/admin/users/by-email/{email} [get]
func (h *Handler) FindUserByEmail(c echo.Context) error {
	svc, err := h.adminService(c)
	if err != nil {
		return err
	}
	u, err := svc.FindByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// FindUserByID looks a user up by id.
//
// @Summary      Find user by id
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.AdminUser
// @Failure      404  {object}  map[string]any
// @Router       /api/admin/users/{id} [get]
func (h *Handler) FindUserByID(c echo.Context) error {
	svc, err := h.adminService(c)
	if err != nil {
		return err
	}
	u, err := svc.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// PromoteUser grants the admin role and returns the refreshed page.
//
// @Summary      Promote user to admin
// @Tags         admin
// @Produce      json
// @Param        id    path      string  true   "User id"
// @Param        page  query     int     false  "Page to refetch"
// @Param        size  query     int     false  "Page size"
// @Success      200   {object}  userPageResponse
// @Failure      404   {object}  map[string]any
// @Router       /api/admin/users/{id}/promote [post]
func (h *Handler) PromoteUser(c echo.Context) error {
	return h.userAction(c, "promote")
}

// UserAction runs any other row action. Only promote has a backend
// contract, so edit, delete and deactivate answer 501.
//
// @Summary      User row action
// @Tags         admin
// @Produce      json
// @Param        id      path      string  true  "User id"
// @Param        action  path      string  true  "edit, delete or deactivate"
// @Success      200     {object}  userPageResponse
// @Failure      501     {object}  map[string]any
// @Router       /api/admin/users/{id}/{action} [post]
func (h *Handler) UserAction(c echo.Context) error {
	return h.userAction(c, c.Param("action"))
}

func (h *Handler) userAction(c echo.Context, action string) error {
	p, err := readPage(c)
	if err != nil {
		return err
	}
	svc, err := h.adminService(c)
	if err != nil {
		return err
	}

	res, err := svc.Perform(c.Request().Context(), c.Param("id"), action, p.page, p.size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserPageResponse(res))
}
