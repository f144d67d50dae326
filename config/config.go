package config

type Configuration struct {
	// Server config
	Server struct {
		UseSSL    bool   `yaml:"ssl"`
		Port      int    `yaml:"port"`
		RedisPort int    `yaml:"redis_port"`
		RedisHost string `yaml:"redis_host"`
	} `yaml:"server"`
	// UTXO-chain node config
	UTXO struct {
		Host          string `yaml:"host"`
		Port          int    `yaml:"port"`
		Confirmations int    `yaml:"confirmations"`
		// important private stuff
		RPCUser     string `yaml:"rpc_user"`
		RPCPassword string `yaml:"rpc_pass"`
		// satoshi per vbyte, 0 means the built-in default
		FeeRate int64 `yaml:"fee_rate"`
	} `yaml:"UTXO"`
	// bridge endpoints: chain ids must be keys of EVMChains
	Bridge struct {
		SourceChain int `yaml:"source_chain"`
		DestChain   int `yaml:"dest_chain"`
	} `yaml:"bridge"`
	// poller intervals, seconds
	Poll struct {
		Blocks  int `yaml:"blocks"`
		Price   int `yaml:"price"`
		Auction int `yaml:"auction"`
	} `yaml:"poll"`
}

var Config Configuration

// maximum number of EVM RPC retries
const EVM_RETRIES = 3

// contract names resolvable through the per-chain address book
const (
	ContractMETToken  = "METToken"
	ContractPorter    = "TokenPorter"
	ContractAuctions  = "Auctions"
	ContractConverter = "AutonomousConverter"
)

// EVM-chains configs
type ChainConfig struct {
	Name             string
	ChainID          int
	RPCList          []string
	Contracts        map[string]string
	MinConfirmations int
	BlockBatch       int
	// receipt polling interval in seconds
	ReceiptPoll int
}

var EVMChains = map[int]ChainConfig{
	1: {
		Name:    "ETH",
		ChainID: 1,
		RPCList: []string{"https://eth.drpc.org", "https://eth.llamarpc.com"},
		Contracts: map[string]string{
			ContractMETToken:  "0xa3d58c4E56fedCae3a7c43A725aeE9A71F0ece4e",
			ContractPorter:    "0x4F4483ba3a4F2f74BF18F5d18e547aADA7cD2a8F",
			ContractAuctions:  "0x9B6b6ba787eDb8b8a65D1F166fa5D8731FC3b2Be",
			ContractConverter: "0x686e5ac50D9236A9b7406791256e47feDDB26AbA",
		},
		MinConfirmations: 3,
		BlockBatch:       512,
		ReceiptPoll:      5,
	},
	61: {
		Name:    "ETC",
		ChainID: 61,
		RPCList: []string{"https://etc.rivet.link", "https://etc.etcdesktop.com"},
		Contracts: map[string]string{
			ContractMETToken:  "0x0D9b263Af6A3A5Dd1e0b7b52c24cAf33F295076B",
			ContractPorter:    "0x6C5E28140fbe158599dFbD8B6E1d6d9Bd11AaC77",
			ContractAuctions:  "0x6E071b1F2Fc09445839Ff0Ae21d3C28CF75164a5",
			ContractConverter: "0x3E75A8D5ea240BA03d44C96Ab1F11E148E036286",
		},
		MinConfirmations: 12,
		BlockBatch:       512,
		ReceiptPoll:      5,
	},
}

// chain identifiers as they appear inside export/import calls (bytes8, hex)
var ChainKeys = map[int]string{
	1:  "0x4554480000000000", // "ETH"
	61: "0x4554430000000000", // "ETC"
}

// burn records awaiting import are tracked in Redis keyed status sets
var RedisStatusSets = map[string]string{
	"exported":   "burns:exported",   // export receipt parsed, proof material retained
	"importing":  "burns:importing",  // import broadcast on destination chain
	"imported":   "burns:imported",   // import receipt confirmed
	"importfail": "burns:importfail", // import rejected, proof retained for resubmission
}
