package game

import (
	"github.com/pthm-cable/colibri/neural"
	"github.com/pthm-cable/colibri/systems"
)

// NetworkPolicy drives an agent from a trained feedforward network.
type NetworkPolicy struct {
	net *neural.FFNN
}

// NewNetworkPolicy wraps a network as a policy.
func NewNetworkPolicy(net *neural.FFNN) *NetworkPolicy {
	return &NetworkPolicy{net: net}
}

// LoadNetworkPolicy reads weights saved by neural.FFNN.SaveFile.
func LoadNetworkPolicy(path string) (*NetworkPolicy, error) {
	net, err := neural.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &NetworkPolicy{net: net}, nil
}

func (p *NetworkPolicy) Act(obs [systems.ObsSize]float64) [systems.ActSize]float64 {
	return p.net.Forward(obs)
}
