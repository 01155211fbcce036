package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"wallet-suite/internal/device"
	"wallet-suite/internal/device/emulator"
	"wallet-suite/internal/network"
	"wallet-suite/pkg/bip39"
	"wallet-suite/pkg/keystore"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var emulatorCmd = &cobra.Command{
	Use:   "emulator",
	Short: "管理模拟设备的加密种子文件",
}

var emulatorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "初始化模拟设备 (生成助记词并加密保存)",
	Long:  `生成新的 BIP-39 助记词，使用用户输入的密码加密后保存为 keystore 文件，供 wallet-server 的 emulator 模式加载。`,
	Run: func(cmd *cobra.Command, args []string) {
		outputFile, _ := cmd.Flags().GetString("output")
		label, _ := cmd.Flags().GetString("label")
		words, _ := cmd.Flags().GetInt("words")
		if _, err := os.Stat(outputFile); err == nil {
			fmt.Printf("错误: 文件 %s 已存在。请先删除或指定其他文件名。\n", outputFile)
			os.Exit(1)
		}

		bits, ok := map[int]int{12: 128, 18: 192, 24: 256}[words]
		if !ok {
			fmt.Println("助记词数量只支持 12 / 18 / 24")
			os.Exit(1)
		}

		fmt.Println("正在初始化模拟设备...")
		password := readPassword("输入密码: ")
		if password != readPassword("确认密码: ") {
			fmt.Println("两次输入的密码不一致！")
			os.Exit(1)
		}
		if len(password) < 6 {
			fmt.Println("密码长度至少需要 6 位。")
			os.Exit(1)
		}

		mnemonic, err := bip39.Generate(bits)
		if err != nil {
			fmt.Printf("生成助记词失败: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("正在加密保存...")
		encrypted, err := keystore.Seal(keystore.DeviceSecret{Label: label, Mnemonic: mnemonic}, password, keystore.StandardScrypt)
		if err != nil {
			fmt.Printf("加密失败: %v\n", err)
			os.Exit(1)
		}
		if err := encrypted.SaveToFile(outputFile); err != nil {
			fmt.Printf("保存文件失败: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n模拟设备已初始化\n")
		fmt.Printf("文件位置: %s\n", outputFile)
		fmt.Printf("设备 ID: %s\n", encrypted.Id)
		fmt.Println("\n警告: 请务必记住密码，丢失后无法恢复。")

		fmt.Print("\n是否需要现在显示助记词以便备份? (y/N): ")
		input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))
		if input == "y" || input == "yes" {
			fmt.Println("\n---------------------------------------------------")
			fmt.Println(mnemonic)
			fmt.Println("---------------------------------------------------")
		}
	},
}

var emulatorAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "离线派生模拟设备的地址",
	Long: `解密 keystore 并按路径派生地址，不需要 wallet-server。
示例:
  wallet-cli emulator address --coin btc --path "m/84'/0'/0'/0/0"`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("keystore")
		coin, _ := cmd.Flags().GetString("coin")
		path, _ := cmd.Flags().GetString("path")

		n, ok := network.Lookup(coin)
		if !ok {
			fmt.Printf("不支持的网络: %s (可选: %s)\n", coin, strings.Join(network.Symbols(), ", "))
			os.Exit(1)
		}

		emu, err := emulator.Load(file, readPassword("输入密码: "))
		if err != nil {
			fmt.Printf("打开 keystore 失败: %v\n", err)
			os.Exit(1)
		}

		params := device.AddressParams{Path: path, Coin: n.Symbol, UseEmptyPassphrase: emu.Info().UseEmptyPassphrase}
		var res device.Response[device.AddressPayload]
		switch n.Type {
		case network.Ethereum:
			res = emu.EthereumGetAddress(context.Background(), params)
		case network.Ripple:
			res = emu.RippleGetAddress(context.Background(), params)
		default:
			res = emu.GetAddress(context.Background(), params)
		}
		if !res.Success {
			fmt.Printf("派生失败: %s\n", res.Failure.Error)
			os.Exit(1)
		}
		fmt.Printf("%s  %s\n", res.Payload.Path, res.Payload.Address)
	},
}

func readPassword(prompt string) string {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("读取密码失败:", err)
		os.Exit(1)
	}
	return string(b)
}

func init() {
	rootCmd.AddCommand(emulatorCmd)
	emulatorCmd.AddCommand(emulatorInitCmd, emulatorAddressCmd)

	emulatorInitCmd.Flags().StringP("output", "o", "device.json", "输出的 keystore 文件名")
	emulatorInitCmd.Flags().String("label", "Emulator", "设备标签")
	emulatorInitCmd.Flags().Int("words", 12, "助记词数量 (12 / 18 / 24)")

	emulatorAddressCmd.Flags().String("keystore", "device.json", "keystore 文件")
	emulatorAddressCmd.Flags().String("coin", "btc", "网络符号")
	emulatorAddressCmd.Flags().String("path", "m/84'/0'/0'/0/0", "BIP-32 派生路径")
}
