// CIDR aggregation for flattened SPF IP literals: merges contiguous ranges
// into exact CIDR blocks so the flattened record stays under the 512-byte cap.
package spfflatten

import (
	"fmt"
	"math"
	"math/big"
	"net"
	"sort"
	"strings"
)

// AggregationConfig holds configuration for CIDR aggregation behavior.
type AggregationConfig struct {
	IPv4MaxPrefix int // maximum IPv4 CIDR prefix allowed - prevents overly broad aggregation (default: 24)
	IPv6MaxPrefix int // maximum IPv6 CIDR prefix allowed - prevents overly broad aggregation (default: 64)
}

var defaultAggregationConfig = AggregationConfig{IPv4MaxPrefix: 24, IPv6MaxPrefix: 64}

// AggregateLiterals merges a domain's resolved IPv4 and IPv6 literal
// sets into the minimal number of exact CIDR blocks that cover exactly
// those addresses and no others. Each input entry is a bare address
// ("192.0.2.1") or an already-CIDR literal ("192.0.2.0/24"); the
// caller attaches the ip4:/ip6: mechanism prefix afterward. Existing
// CIDR literals are preserved as-is rather than re-expanded.
func AggregateLiterals(ipv4, ipv6 []string, config *AggregationConfig) (aggIPv4, aggIPv6 []string) {
	if config == nil {
		cfg := defaultAggregationConfig
		config = &cfg
	}

	v4Individual, v4ExistingCIDRs := splitIndividualFromCIDR(ipv4, false)
	v6Individual, v6ExistingCIDRs := splitIndividualFromCIDR(ipv6, true)

	aggIPv4 = append(aggregateIPv4(v4Individual, config.IPv4MaxPrefix), v4ExistingCIDRs...)
	aggIPv6 = append(aggregateIPv6(v6Individual, config.IPv6MaxPrefix), v6ExistingCIDRs...)
	return aggIPv4, aggIPv6
}

// splitIndividualFromCIDR separates bare addresses (candidates for
// aggregation) from literals that are already CIDR blocks (preserved
// as-is). wantV6 selects which address family to keep.
func splitIndividualFromCIDR(literals []string, wantV6 bool) ([]net.IP, []string) {
	var individual []net.IP
	var existingCIDRs []string

	for _, lit := range literals {
		if strings.Contains(lit, "/") {
			if _, _, err := net.ParseCIDR(lit); err == nil {
				existingCIDRs = append(existingCIDRs, lit)
			}
			continue
		}

		ip := net.ParseIP(lit)
		if ip == nil {
			continue
		}
		isV4 := ip.To4() != nil
		if isV4 == wantV6 {
			continue
		}
		if isV4 {
			individual = append(individual, ip.To4())
		} else {
			individual = append(individual, ip.To16())
		}
	}

	return individual, existingCIDRs
}

// aggregateIPv4 implements RFC 4632-compliant IPv4 CIDR aggregation:
// IPs are converted to uint32 for efficient contiguous-range merging.
func aggregateIPv4(ips []net.IP, maxPrefix int) []string {
	if len(ips) == 0 {
		return nil
	}

	uniqueIPs := make(map[uint32]bool, len(ips))
	for _, ip := range ips {
		uniqueIPs[ipv4ToUint32(ip)] = true
	}

	sortedIPs := make([]uint32, 0, len(uniqueIPs))
	for ip := range uniqueIPs {
		sortedIPs = append(sortedIPs, ip)
	}
	sort.Slice(sortedIPs, func(i, j int) bool { return sortedIPs[i] < sortedIPs[j] })

	return expandPastMaxPrefix(mergeContiguousIPv4Ranges(sortedIPs), maxPrefix, expandIPv4CIDR)
}

func ipv4ToUint32(ip net.IP) uint32 {
	v4 := ip.To4()
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}

func uint32ToIPv4(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// largestPowerOfTwoLessOrEqual finds the largest power of 2 <= value.
func largestPowerOfTwoLessOrEqual(value uint32) uint32 {
	if value == 0 {
		return 1
	}
	power := uint32(1)
	for power <= value {
		power <<= 1
	}
	return power >> 1
}

// mergeContiguousIPv4Ranges finds contiguous IPv4 ranges and converts
// each to the exact CIDR blocks that cover it, with no gaps or
// unintended addresses.
func mergeContiguousIPv4Ranges(sortedIPs []uint32) []string {
	var cidrs []string

	for i := 0; i < len(sortedIPs); {
		start, end := sortedIPs[i], sortedIPs[i]
		j := i + 1
		for j < len(sortedIPs) && sortedIPs[j] == end+1 {
			end = sortedIPs[j]
			j++
		}
		cidrs = append(cidrs, ipv4RangeToExactCIDRs(start, end)...)
		i = j
	}

	return cidrs
}

func ipv4RangeToExactCIDRs(start, end uint32) []string {
	var cidrs []string

	for start <= end {
		blockSize := largestPowerOfTwoLessOrEqual(end - start + 1)
		for start%blockSize != 0 {
			blockSize /= 2
		}

		prefixLen := 32 - int(math.Log2(float64(blockSize)))
		if prefixLen == 32 {
			cidrs = append(cidrs, uint32ToIPv4(start).String())
		} else {
			cidrs = append(cidrs, fmt.Sprintf("%s/%d", uint32ToIPv4(start), prefixLen))
		}
		start += blockSize
	}

	return cidrs
}

func expandIPv4CIDR(cidr string) []string {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil
	}
	ones, _ := ipnet.Mask.Size()
	size := uint32(1) << (32 - ones)
	const maxExpand = 65536 // /16 ceiling, matches the max prefix a caller would realistically pass
	if size > maxExpand {
		return []string{cidr}
	}
	base := ipv4ToUint32(ipnet.IP)
	out := make([]string, 0, size)
	for i := uint32(0); i < size; i++ {
		out = append(out, uint32ToIPv4(base+i).String())
	}
	return out
}

// aggregateIPv6 implements IPv6 CIDR aggregation using big.Int for
// 128-bit range arithmetic.
func aggregateIPv6(ips []net.IP, maxPrefix int) []string {
	if len(ips) == 0 {
		return nil
	}

	uniqueIPs := make(map[string]*big.Int, len(ips))
	for _, ip := range ips {
		b := ipv6ToBigInt(ip)
		uniqueIPs[b.String()] = b
	}

	sortedIPs := make([]*big.Int, 0, len(uniqueIPs))
	for _, b := range uniqueIPs {
		sortedIPs = append(sortedIPs, b)
	}
	sort.Slice(sortedIPs, func(i, j int) bool { return sortedIPs[i].Cmp(sortedIPs[j]) < 0 })

	return expandPastMaxPrefix(mergeContiguousIPv6Ranges(sortedIPs), maxPrefix, expandIPv6CIDR)
}

func ipv6ToBigInt(ip net.IP) *big.Int {
	b := new(big.Int)
	b.SetBytes(ip.To16())
	return b
}

func bigIntToIPv6(b *big.Int) net.IP {
	bytes := b.Bytes()
	if len(bytes) < 16 {
		padded := make([]byte, 16)
		copy(padded[16-len(bytes):], bytes)
		bytes = padded
	}
	return net.IP(bytes)
}

func mergeContiguousIPv6Ranges(sortedIPs []*big.Int) []string {
	var cidrs []string
	one := big.NewInt(1)

	for i := 0; i < len(sortedIPs); {
		start := new(big.Int).Set(sortedIPs[i])
		end := new(big.Int).Set(start)
		j := i + 1
		for j < len(sortedIPs) {
			expected := new(big.Int).Add(end, one)
			if sortedIPs[j].Cmp(expected) != 0 {
				break
			}
			end.Set(sortedIPs[j])
			j++
		}
		cidrs = append(cidrs, ipv6RangeToExactCIDRs(start, end)...)
		i = j
	}

	return cidrs
}

func ipv6RangeToExactCIDRs(start, end *big.Int) []string {
	var cidrs []string
	one := big.NewInt(1)
	current := new(big.Int).Set(start)

	for current.Cmp(end) <= 0 {
		maxSize := new(big.Int).Sub(end, current)
		maxSize.Add(maxSize, one)

		blockSize := big.NewInt(1)
		for new(big.Int).Lsh(blockSize, 1).Cmp(maxSize) <= 0 {
			blockSize.Lsh(blockSize, 1)
		}
		for new(big.Int).Mod(current, blockSize).Sign() != 0 {
			blockSize.Rsh(blockSize, 1)
		}

		prefixLen := 128
		for tmp := new(big.Int).Set(blockSize); tmp.Cmp(big.NewInt(1)) > 0; prefixLen-- {
			tmp.Rsh(tmp, 1)
		}

		if prefixLen == 128 {
			cidrs = append(cidrs, bigIntToIPv6(current).String())
		} else {
			cidrs = append(cidrs, fmt.Sprintf("%s/%d", bigIntToIPv6(current), prefixLen))
		}
		current.Add(current, blockSize)
	}

	return cidrs
}

func expandIPv6CIDR(cidr string) []string {
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil
	}
	ones, _ := ipnet.Mask.Size()
	const minPrefixToExpand = 118 // /118 or smaller only, matches the v4 expansion ceiling in spirit
	if ones < minPrefixToExpand {
		return []string{cidr}
	}
	size := uint64(1) << (128 - ones)
	base := ipv6ToBigInt(ipnet.IP)
	out := make([]string, 0, size)
	for i := uint64(0); i < size; i++ {
		out = append(out, bigIntToIPv6(new(big.Int).Add(base, big.NewInt(int64(i)))).String())
	}
	return out
}

// expandPastMaxPrefix re-expands any aggregated block whose prefix is
// shorter (broader) than maxPrefix back into its constituent
// addresses, so the caller never emits a CIDR block broader than its
// configured ceiling allows to be collapsed away.
func expandPastMaxPrefix(cidrs []string, maxPrefix int, expand func(string) []string) []string {
	out := make([]string, 0, len(cidrs))
	for _, c := range cidrs {
		parts := strings.SplitN(c, "/", 2)
		if len(parts) != 2 {
			out = append(out, c)
			continue
		}
		var prefix int
		if _, err := fmt.Sscanf(parts[1], "%d", &prefix); err != nil {
			out = append(out, c)
			continue
		}
		if prefix >= maxPrefix {
			out = append(out, c)
			continue
		}
		out = append(out, expand(c)...)
	}
	return out
}

// SPFSemanticallyDifferent reports whether two SPF records cover
// different sets of IP addresses, so that two records which differ
// only in formatting (CIDR aggregation, mechanism order) can still be
// treated as the same record by callers that dedup on content.
func SPFSemanticallyDifferent(oldSPF, newSPF string) bool {
	return !ipSetsEqual(expandSPFLiterals(oldSPF), expandSPFLiterals(newSPF))
}

// expandSPFLiterals extracts every ip4:/ip6: mechanism from a raw SPF
// record string and expands any CIDR blocks to their constituent
// addresses, for set comparison.
func expandSPFLiterals(spfRecord string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(spfRecord) {
		var lit string
		var expand func(string) []string
		switch {
		case strings.HasPrefix(tok, "ip4:"):
			lit, expand = strings.TrimPrefix(tok, "ip4:"), expandIPv4CIDR
		case strings.HasPrefix(tok, "ip6:"):
			lit, expand = strings.TrimPrefix(tok, "ip6:"), expandIPv6CIDR
		default:
			continue
		}

		if strings.Contains(lit, "/") {
			for _, ip := range expand(lit) {
				set[ip] = true
			}
		} else if ip := net.ParseIP(lit); ip != nil {
			set[ip.String()] = true
		}
	}
	return set
}

func ipSetsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for ip := range a {
		if !b[ip] {
			return false
		}
	}
	return true
}
