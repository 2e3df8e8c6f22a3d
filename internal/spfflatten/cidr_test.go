package spfflatten

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateLiteralsMergesContiguousIPv4(t *testing.T) {
	v4, v6 := AggregateLiterals([]string{"192.0.2.0", "192.0.2.1"}, nil, nil)

	assert.Equal(t, []string{"192.0.2.0/31"}, v4)
	assert.Empty(t, v6)
}

func TestAggregateLiteralsRespectsMaxPrefix(t *testing.T) {
	ips := make([]string, 0, 512)
	for i := 0; i < 512; i++ {
		ips = append(ips, "198.51."+itoa(i/256)+"."+itoa(i%256))
	}

	v4, _ := AggregateLiterals(ips, nil, &AggregationConfig{IPv4MaxPrefix: 24, IPv6MaxPrefix: 64})

	// A contiguous /23 block (512 addresses) is broader than the
	// configured /24 ceiling, so it must come back as individual
	// addresses rather than one collapsed block.
	assert.Len(t, v4, 512)
}

func TestAggregateLiteralsPreservesExistingCIDR(t *testing.T) {
	v4, _ := AggregateLiterals([]string{"203.0.113.0/24"}, nil, nil)
	assert.Equal(t, []string{"203.0.113.0/24"}, v4)
}

func TestAggregateLiteralsNonContiguousStaysIndividual(t *testing.T) {
	v4, _ := AggregateLiterals([]string{"192.0.2.1", "192.0.2.200"}, nil, nil)
	assert.ElementsMatch(t, []string{"192.0.2.1", "192.0.2.200"}, v4)
}

func TestAggregateLiteralsIPv6(t *testing.T) {
	v4, v6 := AggregateLiterals(nil, []string{"2001:db8::", "2001:db8::1"}, nil)
	assert.Empty(t, v4)
	assert.Equal(t, []string{"2001:db8::/127"}, v6)
}

func TestSPFSemanticallyDifferentDetectsEquivalentAggregation(t *testing.T) {
	a := "v=spf1 ip4:192.0.2.0 ip4:192.0.2.1 ~all"
	b := "v=spf1 ip4:192.0.2.0/31 ~all"
	assert.False(t, SPFSemanticallyDifferent(a, b))
}

func TestSPFSemanticallyDifferentDetectsRealChange(t *testing.T) {
	a := "v=spf1 ip4:192.0.2.1 ~all"
	b := "v=spf1 ip4:192.0.2.2 ~all"
	assert.True(t, SPFSemanticallyDifferent(a, b))
}
