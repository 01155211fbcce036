package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "交易: compose -> review -> sign -> push",
}

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "使用当前选中账户组装交易",
	Long: `组装交易并打开会话。金额使用最小单位 (satoshi / wei / drops / 代币最小单位)。
示例:
  wallet-cli tx compose --to bc1q... --amount 150000 --fee 5
  wallet-cli tx compose --to 0x... --max --fee 20000000000`,
	Run: func(cmd *cobra.Command, args []string) {
		to, _ := cmd.Flags().GetString("to")
		amount, _ := cmd.Flags().GetString("amount")
		setMax, _ := cmd.Flags().GetBool("max")
		fee, _ := cmd.Flags().GetString("fee")
		gasLimit, _ := cmd.Flags().GetUint64("gas-limit")
		token, _ := cmd.Flags().GetString("token")

		body := map[string]interface{}{
			"outputs":  []map[string]interface{}{{"address": to, "amount": amount, "setMax": setMax}},
			"feeLevel": map[string]interface{}{"feePerUnit": fee, "feeLimit": gasLimit},
			"token":    token,
		}
		if cmd.Flags().Changed("tag") {
			tag, _ := cmd.Flags().GetUint32("tag")
			body["destinationTag"] = tag
		}

		var session map[string]json.RawMessage
		if err := newAPIClient().call(resty.MethodPost, "/tx/compose", body, &session); err != nil {
			fmt.Println("组装失败:", err)
			os.Exit(1)
		}
		printJSON(session)
	},
}

// sessionStep review / sign / push / cancel 共用
func sessionStep(step, short string) *cobra.Command {
	return &cobra.Command{
		Use:   step + " <session-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var out json.RawMessage
			err := newAPIClient().call(resty.MethodPost, "/tx/"+step, map[string]string{"sessionId": args[0]}, &out)
			if err != nil {
				fmt.Printf("%s 失败: %v\n", step, err)
				os.Exit(1)
			}
			printJSON(out)
		},
	}
}

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(composeCmd,
		sessionStep("review", "保存交易信息，准备签名"),
		sessionStep("sign", "在设备上签名 (等待确认)"),
		sessionStep("push", "广播已签名交易"),
		sessionStep("cancel", "取消交易会话 (review 之后)"),
		sessionStep("discard", "丢弃尚未 review 的会话"),
	)

	composeCmd.Flags().String("to", "", "收款地址")
	composeCmd.Flags().String("amount", "", "金额 (最小单位)")
	composeCmd.Flags().Bool("max", false, "发送全部可用余额")
	composeCmd.Flags().String("fee", "", "费率: sat/vB, wei/gas 或 drops")
	composeCmd.Flags().Uint64("gas-limit", 0, "ethereum gas limit，默认自动")
	composeCmd.Flags().String("token", "", "ERC-20 合约地址")
	composeCmd.Flags().Uint32("tag", 0, "ripple destination tag")
	_ = composeCmd.MarkFlagRequired("to")
}
