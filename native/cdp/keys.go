package cdp

import (
	"encoding/hex"
	"strings"

	"nusdcore/crypto"
)

var (
	collateralConfigPrefix = []byte("cdp/config/")
	collateralIndexKey     = []byte("cdp/config/index")
	priceFeedPrefix        = []byte("cdp/price/")
	trovePrefix            = []byte("cdp/trove/")
	totalDebtPrefix        = []byte("cdp/debt/")
	poolStateKey           = []byte("cdp/pool")
	rewardPerSharePrefix   = []byte("cdp/rps/")
	rewardAssetIndexKey    = []byte("cdp/rps/index")
	depositPrefix          = []byte("cdp/deposit/")
	claimablePrefix        = []byte("cdp/claimable/")
)

func normaliseAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}

func appendKey(prefix []byte, parts ...string) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part) + 1
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for i, part := range parts {
		if i > 0 {
			buf = append(buf, '/')
		}
		buf = append(buf, part...)
	}
	return buf
}

func collateralConfigKey(asset string) []byte {
	return appendKey(collateralConfigPrefix, asset)
}

func priceFeedKey(asset string) []byte {
	return appendKey(priceFeedPrefix, asset)
}

func troveKey(owner crypto.Address, asset string) []byte {
	return appendKey(trovePrefix, asset, hex.EncodeToString(owner.Bytes()))
}

func totalDebtKey(asset string) []byte {
	return appendKey(totalDebtPrefix, asset)
}

func rewardPerShareKey(asset string) []byte {
	return appendKey(rewardPerSharePrefix, asset)
}

func depositKey(account crypto.Address) []byte {
	return appendKey(depositPrefix, hex.EncodeToString(account.Bytes()))
}

func claimableKey(account crypto.Address, asset string) []byte {
	return appendKey(claimablePrefix, asset, hex.EncodeToString(account.Bytes()))
}
