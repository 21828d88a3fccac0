package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"alerthub/cmd/alert-service/internal/domain"
	"alerthub/cmd/alert-service/internal/service"
	pkgerrors "alerthub/pkg/errors"
)

// AlertHandler 告警控制面处理器
type AlertHandler struct {
	service         *service.AlertService
	defaultCooldown time.Duration
}

// NewAlertHandler 创建处理器
func NewAlertHandler(srv *service.AlertService, defaultCooldown time.Duration) *AlertHandler {
	if defaultCooldown <= 0 {
		defaultCooldown = 15 * time.Minute
	}
	return &AlertHandler{
		service:         srv,
		defaultCooldown: defaultCooldown,
	}
}

// RecordExecutionRequest 执行快照上报请求
type RecordExecutionRequest struct {
	Timestamp   time.Time          `json:"timestamp"`
	Success     bool               `json:"success"`
	LatencyMs   float64            `json:"latency_ms"`
	OperationID string             `json:"operation_id"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// RecordExecution 上报执行快照（即发即忘，202）
func (h *AlertHandler) RecordExecution(c *gin.Context) {
	tenantID := c.Param("tenant")
	var req RecordExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.NewBadRequest("INVALID_ARGUMENT", err.Error()))
		return
	}

	snap := domain.ExecutionSnapshot{
		Timestamp:   req.Timestamp,
		Success:     req.Success,
		LatencyMs:   req.LatencyMs,
		OperationID: req.OperationID,
	}
	if len(req.Metrics) > 0 {
		snap.Metrics = make(map[domain.MetricName]float64, len(req.Metrics))
		for k, v := range req.Metrics {
			snap.Metrics[domain.MetricName(k)] = v
		}
	}

	h.service.RecordExecution(tenantID, snap)
	c.Status(http.StatusAccepted)
}

// CreateRuleRequest 创建规则请求
type CreateRuleRequest struct {
	Name        string                       `json:"name" binding:"required"`
	Description string                       `json:"description"`
	Condition   domain.AlertCondition        `json:"condition" binding:"required"`
	Channels    []domain.NotificationChannel `json:"channels" binding:"required"`
	Severity    domain.AlertSeverity         `json:"severity" binding:"required"`
	CooldownSec int                          `json:"cooldown_seconds"`
}

// CreateRule 创建告警规则
func (h *AlertHandler) CreateRule(c *gin.Context) {
	tenantID := c.Param("tenant")
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.NewBadRequest("INVALID_ARGUMENT", err.Error()))
		return
	}

	cooldown := time.Duration(req.CooldownSec) * time.Second
	if req.CooldownSec == 0 {
		cooldown = h.defaultCooldown
	}
	rule := domain.NewAlertRule(tenantID, req.Name, req.Description, req.Condition, req.Channels, req.Severity, cooldown)

	if err := h.service.CreateRule(c.Request.Context(), rule); err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.NewBadRequest("INVALID_ARGUMENT", err.Error()))
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// ListRules 列出租户规则
func (h *AlertHandler) ListRules(c *gin.Context) {
	tenantID := c.Param("tenant")
	c.JSON(http.StatusOK, gin.H{"rules": h.service.GetRules(tenantID)})
}

// UpdateRule 更新规则
func (h *AlertHandler) UpdateRule(c *gin.Context) {
	id := c.Param("id")
	var patch domain.AlertRulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.NewBadRequest("INVALID_ARGUMENT", err.Error()))
		return
	}

	rule, err := h.service.UpdateRule(c.Request.Context(), id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, pkgerrors.NewNotFound("NOT_FOUND", err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, pkgerrors.NewBadRequest("INVALID_ARGUMENT", err.Error()))
		return
	}
	c.JSON(http.StatusOK, rule)
}

// DeleteRule 删除规则
func (h *AlertHandler) DeleteRule(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.service.DeleteRule(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkgerrors.NewInternalServerError("INTERNAL_ERROR", err.Error()))
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, pkgerrors.NewNotFound("RULE_NOT_FOUND", "rule not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// AcknowledgeAlert 确认告警
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	alert, err := h.service.AcknowledgeAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, pkgerrors.NewNotFound("NOT_FOUND", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, pkgerrors.NewInternalServerError("INTERNAL_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, alert)
}

// ResolveAlert 解决告警
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	alert, err := h.service.ResolveAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, pkgerrors.NewNotFound("NOT_FOUND", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, pkgerrors.NewInternalServerError("INTERNAL_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, alert)
}

// ListAlerts 告警历史
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	tenantID := c.Param("tenant")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	alerts, err := h.service.GetAlertHistory(c.Request.Context(), tenantID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkgerrors.NewInternalServerError("INTERNAL_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// SetTenantTierRequest 租户层级登记请求
type SetTenantTierRequest struct {
	Tier domain.SLATier `json:"tier" binding:"required"`
}

// SetTenantTier 登记租户的 SLA 层级
func (h *AlertHandler) SetTenantTier(c *gin.Context) {
	tenantID := c.Param("tenant")
	var req SetTenantTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.NewBadRequest("INVALID_ARGUMENT", err.Error()))
		return
	}

	if err := h.service.SetTenantTier(tenantID, req.Tier); err != nil {
		c.JSON(http.StatusBadRequest, pkgerrors.NewBadRequest("UNKNOWN_TIER", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant_id": tenantID, "tier": req.Tier})
}

// GetSLAStatus 计算并返回 SLA 合规状态
func (h *AlertHandler) GetSLAStatus(c *gin.Context) {
	tenantID := c.Param("tenant")
	tier := domain.SLATier(c.DefaultQuery("tier", string(domain.TierBasic)))

	status, err := h.service.CalculateSLAStatus(c.Request.Context(), tenantID, tier)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTier) {
			c.JSON(http.StatusBadRequest, pkgerrors.NewBadRequest("INVALID_ARGUMENT", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, pkgerrors.NewInternalServerError("INTERNAL_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListViolations 违约历史
func (h *AlertHandler) ListViolations(c *gin.Context) {
	tenantID := c.Param("tenant")

	var start, end time.Time
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, pkgerrors.NewBadRequest("INVALID_ARGUMENT", "invalid start time"))
			return
		}
		start = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, pkgerrors.NewBadRequest("INVALID_ARGUMENT", "invalid end time"))
			return
		}
		end = t
	}

	violations, err := h.service.GetViolationHistory(c.Request.Context(), tenantID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, pkgerrors.NewInternalServerError("INTERNAL_ERROR", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"violations": violations})
}
