package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"wallet-suite/internal/handler/response"
	"wallet-suite/internal/store"
)

// HealthStatus /health 返回内容。服务本身可用即为 UP，设备状态单独给出
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Device  string `json:"device"` // ready | unavailable | none
	Account string `json:"account,omitempty"`
	Uptime  string `json:"uptime"`
}

type HealthHandler struct {
	state   store.Provider
	started time.Time
}

func NewHealthHandler(state store.Provider) *HealthHandler {
	return &HealthHandler{state: state, started: time.Now()}
}

// Check godoc
// @Summary Check system health
// @Description 服务状态、设备可达性以及当前选中账户
// @Tags system
// @Produce  json
// @Success 200 {object} response.Response{data=HealthStatus}
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	response.Success(c, h.status())
}

func (h *HealthHandler) status() HealthStatus {
	st := HealthStatus{
		Status:  "UP",
		Service: "wallet-server",
		Device:  "none",
		Uptime:  time.Since(h.started).Truncate(time.Second).String(),
	}
	if dev := h.state.Device(); dev != nil {
		st.Device = "unavailable"
		if dev.Reachable() {
			st.Device = "ready"
		}
	}
	if acct := h.state.SelectedAccount(); acct != nil {
		st.Account = acct.Descriptor
	}
	return st
}
