package server

import (
	"fmt"
	"net"
	"strings"
)

// GetLocalIP 获取本机的局域网IPv4地址，用于启动时打印访问地址
func GetLocalIP() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	// 优先选择的接口名称（按优先级排序）
	preferred := []string{"wlan", "wifi", "wireless", "ethernet", "eth", "en"}
	for _, name := range preferred {
		for _, iface := range interfaces {
			if !strings.Contains(strings.ToLower(iface.Name), name) {
				continue
			}
			if ip := privateIPv4(iface); ip != "" {
				return ip, nil
			}
		}
	}

	// 没找到优先接口，遍历其余非虚拟接口
	for _, iface := range interfaces {
		lower := strings.ToLower(iface.Name)
		if iface.Flags&net.FlagLoopback != 0 || strings.Contains(lower, "vmware") || strings.Contains(lower, "virtual") {
			continue
		}
		if ip := privateIPv4(iface); ip != "" {
			return ip, nil
		}
	}

	// 最后尝试所有IPv4地址
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String(), nil
		}
	}
	return "", fmt.Errorf("未找到有效的IP地址")
}

func privateIPv4(iface net.Interface) string {
	addrs, err := iface.Addrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil && ipnet.IP.IsPrivate() {
			return ipnet.IP.String()
		}
	}
	return ""
}
