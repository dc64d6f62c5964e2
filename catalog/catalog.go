// Package catalog holds the static list of resources ethwatch polls.
package catalog

// Repo identifies a GitHub repository whose latest release is polled.
type Repo struct {
	DisplayName string
	Owner       string
	Name        string
}

// Feed identifies an RSS/Atom feed to poll.
type Feed struct {
	DisplayName string
	URL         string
}

// ExecutionClients are the Ethereum execution-layer clients.
var ExecutionClients = []Repo{
	{DisplayName: "Geth", Owner: "ethereum", Name: "go-ethereum"},
	{DisplayName: "Nethermind", Owner: "NethermindEth", Name: "nethermind"},
	{DisplayName: "Besu", Owner: "hyperledger", Name: "besu"},
	{DisplayName: "Erigon", Owner: "erigontech", Name: "erigon"},
	{DisplayName: "Reth", Owner: "paradigmxyz", Name: "reth"},
}

// ConsensusClients are the Ethereum consensus-layer clients.
var ConsensusClients = []Repo{
	{DisplayName: "Lighthouse", Owner: "sigp", Name: "lighthouse"},
	{DisplayName: "Prysm", Owner: "OffchainLabs", Name: "prysm"},
	{DisplayName: "Teku", Owner: "Consensys", Name: "teku"},
	{DisplayName: "Nimbus", Owner: "status-im", Name: "nimbus-eth2"},
	{DisplayName: "Lodestar", Owner: "ChainSafe", Name: "lodestar"},
}

// DevTools are developer tooling repositories.
var DevTools = []Repo{
	{DisplayName: "Foundry", Owner: "foundry-rs", Name: "foundry"},
	{DisplayName: "Hardhat", Owner: "NomicFoundation", Name: "hardhat"},
	{DisplayName: "Solidity", Owner: "ethereum", Name: "solidity"},
	{DisplayName: "Web3.py", Owner: "ethereum", Name: "web3.py"},
	{DisplayName: "Ethers.js", Owner: "ethers-io", Name: "ethers.js"},
}

// Feeds are the blog feeds to poll.
var Feeds = []Feed{
	{DisplayName: "Ethereum Blog", URL: "https://blog.ethereum.org/en/feed.xml"},
}

// Repos returns the full ordered repository catalog.
func Repos() []Repo {
	out := make([]Repo, 0, len(ExecutionClients)+len(ConsensusClients)+len(DevTools))
	out = append(out, ExecutionClients...)
	out = append(out, ConsensusClients...)
	out = append(out, DevTools...)
	return out
}
