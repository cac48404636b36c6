package base

const (
	CommandSuccess int = iota
	CommandApiError
	CommandCliError
	CommandUserError
)

const (
	EnvGatehouseCLIFormat  = "GATEHOUSE_CLI_FORMAT"
	EnvGatehouseCLINoColor = "GATEHOUSE_CLI_NO_COLOR"

	FlagNameAddr          = "addr"
	FlagNameWorkspaceId   = "workspace-id"
	FlagNameCACert        = "ca-cert"
	FlagNameCAPath        = "ca-path"
	FlagNameClientCert    = "client-cert"
	FlagNameClientKey     = "client-key"
	FlagNameTLSInsecure   = "tls-insecure"
	FlagNameTLSServerName = "tls-server-name"
)
