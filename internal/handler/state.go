package handler

import (
	"github.com/gin-gonic/gin"

	"wallet-suite/internal/handler/response"
	"wallet-suite/internal/model"
	"wallet-suite/internal/store"
)

// StateHandler 供设备管理和账户子系统写入当前设备 / 选中账户
type StateHandler struct {
	store *store.Store
}

func NewStateHandler(s *store.Store) *StateHandler {
	return &StateHandler{store: s}
}

// Get 当前状态快照
// @Summary 查询状态
// @Tags State
// @Produce json
// @Success 200 {object} response.Response
// @Router /state [get]
func (h *StateHandler) Get(c *gin.Context) {
	response.Success(c, h.store.Snapshot())
}

// SetDevice 设置当前设备，body 为 null 表示设备已断开
// @Summary 设置设备
// @Tags State
// @Accept json
// @Produce json
// @Param request body model.Device true "Device"
// @Success 200 {object} response.Response
// @Router /state/device [put]
func (h *StateHandler) SetDevice(c *gin.Context) {
	var dev *model.Device
	if err := c.ShouldBindJSON(&dev); err != nil {
		response.BindError(c, err)
		return
	}
	h.store.SetDevice(dev)
	response.Success(c, h.store.Snapshot())
}

// SetAccount 设置当前选中账户，body 为 null 表示取消选择
// @Summary 选择账户
// @Tags State
// @Accept json
// @Produce json
// @Param request body model.Account true "Account"
// @Success 200 {object} response.Response
// @Router /state/account [put]
func (h *StateHandler) SetAccount(c *gin.Context) {
	var account *model.Account
	if err := c.ShouldBindJSON(&account); err != nil {
		response.BindError(c, err)
		return
	}
	h.store.SelectAccount(account)
	response.Success(c, h.store.Snapshot())
}
