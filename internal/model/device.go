package model

// Device 当前连接的硬件设备快照，由设备管理子系统提供
type Device struct {
	Path               string `json:"path"`
	Label              string `json:"label"`
	State              string `json:"state,omitempty"`
	Connected          bool   `json:"connected"`
	Available          bool   `json:"available"`
	UseEmptyPassphrase bool   `json:"useEmptyPassphrase"`
}

// Reachable 设备已连接并可用
func (d *Device) Reachable() bool {
	return d != nil && d.Connected && d.Available
}
