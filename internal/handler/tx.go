package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"wallet-suite/internal/effect"
	"wallet-suite/internal/handler/request"
	"wallet-suite/internal/handler/response"
	"wallet-suite/internal/model"
	"wallet-suite/internal/service/transaction"
	"wallet-suite/internal/store"
	"wallet-suite/pkg/errno"
)

type TxHandler struct {
	manager *transaction.Manager
	state   store.Provider
}

func NewTxHandler(manager *transaction.Manager, state store.Provider) *TxHandler {
	return &TxHandler{manager: manager, state: state}
}

// Compose 组装交易
// @Summary 组装交易
// @Description 使用当前选中账户组装交易并打开会话；失败原因 (如 NOT-ENOUGH-FUNDS) 在 msg 中返回
// @Tags Transaction
// @Accept json
// @Produce json
// @Param request body request.ComposeRequest true "Compose Request"
// @Success 200 {object} response.Response
// @Router /tx/compose [post]
func (h *TxHandler) Compose(c *gin.Context) {
	var req request.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	account := h.state.SelectedAccount()
	if account == nil {
		response.Error(c, errno.ErrAccountNotSelected)
		return
	}

	session, err := h.manager.Compose(c.Request.Context(), &model.ComposeRequest{
		Account:        *account,
		Outputs:        req.Outputs,
		FeeLevel:       req.FeeLevel,
		Token:          req.Token,
		DestinationTag: req.DestinationTag,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, session)
}

// Review 保存交易信息等待签名
// @Summary 核对交易
// @Tags Transaction
// @Accept json
// @Produce json
// @Param request body request.SessionRequest true "Session"
// @Success 200 {object} response.Response
// @Router /tx/review [post]
func (h *TxHandler) Review(c *gin.Context) {
	h.step(c, h.manager.Review)
}

// Sign 在设备上签名，阻塞到用户确认或取消
// @Summary 设备签名
// @Tags Transaction
// @Accept json
// @Produce json
// @Param request body request.SessionRequest true "Session"
// @Success 200 {object} response.Response
// @Router /tx/sign [post]
func (h *TxHandler) Sign(c *gin.Context) {
	h.step(c, h.manager.Sign)
}

// Push 广播已签名交易
// @Summary 推送交易
// @Tags Transaction
// @Accept json
// @Produce json
// @Param request body request.SessionRequest true "Session"
// @Success 200 {object} response.Response
// @Router /tx/push [post]
func (h *TxHandler) Push(c *gin.Context) {
	h.step(c, h.manager.Push)
}

// Cancel 取消会话
// @Summary 取消交易
// @Tags Transaction
// @Accept json
// @Produce json
// @Param request body request.SessionRequest true "Session"
// @Success 200 {object} response.Response
// @Router /tx/cancel [post]
func (h *TxHandler) Cancel(c *gin.Context) {
	h.step(c, h.manager.Cancel)
}

// Discard 丢弃只组装过、尚未核对的会话
// @Summary 丢弃会话
// @Tags Transaction
// @Accept json
// @Produce json
// @Param request body request.SessionRequest true "Session"
// @Success 200 {object} response.Response
// @Router /tx/discard [post]
func (h *TxHandler) Discard(c *gin.Context) {
	h.step(c, func(ctx context.Context, id string) (*transaction.Session, error) {
		return nil, h.manager.Discard(ctx, id)
	})
}

// Session 查询进行中的会话
// @Summary 查询会话
// @Tags Transaction
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Router /tx/sessions/{id} [get]
func (h *TxHandler) Session(c *gin.Context) {
	s, err := h.manager.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, s)
}

type sessionStep func(ctx context.Context, id string) (*transaction.Session, error)

func (h *TxHandler) step(c *gin.Context, fn sessionStep) {
	var req request.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	ctx, rec := effect.Capture(c.Request.Context())
	s, err := fn(ctx, req.SessionID)
	if err != nil {
		response.ErrorWithData(c, err, response.Wrap(s, rec))
		return
	}
	response.Success(c, response.Wrap(s, rec))
}
