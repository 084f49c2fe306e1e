package crud

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/common"
)

// MaxBodyBytes caps the JSON body of create and update requests.
const MaxBodyBytes = 1 << 20

type Op uint8

const (
	OpList Op = 1 << iota
	OpGet
	OpCreate
	OpUpdate
	OpDelete

	ReadOnly = OpList | OpGet
	AllOps   = OpList | OpGet | OpCreate | OpUpdate | OpDelete
)

// Handler exposes a Service as REST routes.
type Handler[E any, F any, PF interface {
	*F
	Form[E]
}] struct {
	service *Service[E, F, PF]
	scopes  []func(*gorm.DB) *gorm.DB
}

// NewHandler wraps service. Scopes restrict what List can see, for example
// to hide unpublished rows from public routes.
func NewHandler[E any, F any, PF interface {
	*F
	Form[E]
}](service *Service[E, F, PF], scopes ...func(*gorm.DB) *gorm.DB) *Handler[E, F, PF] {
	return &Handler[E, F, PF]{service: service, scopes: scopes}
}

// Register mounts the selected operations under path:
//
//	GET    path       list
//	GET    path/:id   get
//	POST   path       create
//	PUT    path/:id   update
//	PATCH  path/:id   update
//	DELETE path/:id   delete
func (h *Handler[E, F, PF]) Register(rg *gin.RouterGroup, path string, ops Op) {
	if ops&OpList != 0 {
		rg.GET(path, h.list)
	}
	if ops&OpGet != 0 {
		rg.GET(path+"/:id", h.get)
	}
	if ops&OpCreate != 0 {
		rg.POST(path, h.create)
	}
	if ops&OpUpdate != 0 {
		rg.PUT(path+"/:id", h.update)
		rg.PATCH(path+"/:id", h.update)
	}
	if ops&OpDelete != 0 {
		rg.DELETE(path+"/:id", h.delete)
	}
}

func (h *Handler[E, F, PF]) list(c *gin.Context) {
	var filter string
	if param := h.service.FilterParam(); param != "" {
		filter = c.Query(param)
	}

	items, err := h.service.List(c.Request.Context(), filter, h.scopes...)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler[E, F, PF]) get(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}

	entity, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (h *Handler[E, F, PF]) create(c *gin.Context) {
	body, ok := ReadBody(c)
	if !ok {
		return
	}

	entity, err := h.service.Create(c.Request.Context(), body)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, entity)
}

func (h *Handler[E, F, PF]) update(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	body, ok := ReadBody(c)
	if !ok {
		return
	}

	entity, err := h.service.Update(c.Request.Context(), id, body)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (h *Handler[E, F, PF]) delete(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// id parses the :id parameter. Ids that cannot exist are reported as not found.
func (h *Handler[E, F, PF]) id(c *gin.Context) (uint, bool) {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		c.Error(common.NotFound(h.service.Name()))
		return 0, false
	}
	return id, true
}

func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}

// ReadBody reads the request body up to MaxBodyBytes.
func ReadBody(c *gin.Context) ([]byte, bool) {
	if c.Request.Body == nil {
		return nil, true
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes+1))
	if err != nil {
		c.Error(common.BadRequest("could not read request body"))
		return nil, false
	}
	if len(body) > MaxBodyBytes {
		c.Error(&common.Error{Status: http.StatusRequestEntityTooLarge, Message: "request body too large"})
		return nil, false
	}
	return body, true
}
