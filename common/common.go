package common

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mssola/useragent"
)

const letterBytes = "abcdefghijklmnopqrstuvwxyz0123456789"

// Geo is the coarse location resolved for an IP address.
type Geo struct {
	Country string `json:"country"`
	Region  string `json:"regionName"`
	City    string `json:"city"`
}

// ClientInfo is the parsed user agent of a visitor.
type ClientInfo struct {
	Device  string
	Browser string
	OS      string
}

var geoClient = &http.Client{Timeout: 3 * time.Second}

// LookupGeo finds the location of an IP address using ip-api.com's API
func LookupGeo(ipaddr string) (Geo, error) {
	if isLocalAddr(ipaddr) {
		return Geo{}, nil
	}

	resp, err := geoClient.Get(fmt.Sprintf("http://ip-api.com/json/%s?fields=country,regionName,city", ipaddr))
	if err != nil {
		return Geo{}, err
	}
	defer resp.Body.Close()

	var g Geo
	err = json.NewDecoder(resp.Body).Decode(&g)
	return g, err
}

// GetIPAddr returns the client address of a request. Proxied requests carry
// the real address in X-Forwarded-For, possibly as a comma separated chain.
func GetIPAddr(r *http.Request) string {
	headerIP := r.Header.Get("X-Forwarded-For")
	if headerIP != "" {
		return strings.TrimSpace(strings.Split(headerIP, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ParseUserAgent extracts device, browser and OS names from a raw user agent
// string. Fields that can not be derived come back as "unknown".
func ParseUserAgent(raw string) ClientInfo {
	ci := ClientInfo{Device: "unknown", Browser: "unknown", OS: "unknown"}
	if raw == "" {
		return ci
	}

	ua := useragent.New(raw)
	if name, _ := ua.Browser(); name != "" {
		ci.Browser = name
	}
	if os := ua.OSInfo().Name; os != "" {
		ci.OS = os
	}
	if ua.Mobile() {
		ci.Device = "mobile"
	} else if ua.Bot() {
		ci.Device = "bot"
	} else if ua.Platform() != "" {
		ci.Device = "desktop"
	}
	return ci
}

// RandomString returns n random characters from [a-z0-9].
func RandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}

func isLocalAddr(ipaddr string) bool {
	if ipaddr == "" || ipaddr == "unknown" {
		return true
	}
	if strings.Contains(ipaddr, "[::1]") || ipaddr == "::1" {
		return true
	}
	ip := net.ParseIP(ipaddr)
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
}
