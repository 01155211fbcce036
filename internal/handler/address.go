package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"wallet-suite/internal/effect"
	"wallet-suite/internal/handler/request"
	"wallet-suite/internal/handler/response"
	"wallet-suite/internal/model"
	"wallet-suite/internal/store"
)

// AddressVerifier verify.Coordinator
type AddressVerifier interface {
	VerifyAddress(ctx context.Context, account *model.Account, flow model.Flow) model.VerificationOutcome
}

type AddressHandler struct {
	verifier AddressVerifier
	state    store.Provider
}

func NewAddressHandler(verifier AddressVerifier, state store.Provider) *AddressHandler {
	return &AddressHandler{verifier: verifier, state: state}
}

// VerifyAddress 在设备上校验地址
// @Summary 校验收款地址
// @Description 在硬件设备上展示当前账户的下一个未使用地址；设备不可达时返回 unverified-address 弹窗意图
// @Tags Address
// @Accept json
// @Produce json
// @Param request body request.VerifyAddressRequest false "Verify Request"
// @Success 200 {object} response.Response
// @Router /address/verify [post]
func (h *AddressHandler) VerifyAddress(c *gin.Context) {
	var req request.VerifyAddressRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
	}
	flow := model.FlowBuy
	if req.Flow != "" {
		flow = model.Flow(req.Flow)
	}

	ctx, rec := effect.Capture(c.Request.Context())
	outcome := h.verifier.VerifyAddress(ctx, h.state.SelectedAccount(), flow)
	response.Success(c, response.Wrap(gin.H{"outcome": outcome}, rec))
}
