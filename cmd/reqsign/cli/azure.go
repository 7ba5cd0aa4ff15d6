package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reqsign/reqsign/internal/azure"
	"github.com/reqsign/reqsign/internal/config"
)

var azureCmd = &cobra.Command{
	Use:   "azure",
	Short: "Azure credential commands",
}

var azureUseIMDS bool

var azureTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Resolve an Azure Storage credential and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		loader := azure.NewLoader(newAzureConfig(&cfg.Azure))

		var cred *azure.Credential
		if azureUseIMDS {
			cred, err = loader.LoadViaIMDS(cmd.Context())
		} else {
			cred, err = loader.Load(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("resolving Azure credentials: %w", err)
		}
		if cred == nil {
			return fmt.Errorf("no Azure credentials configured")
		}

		out := map[string]string{"kind": string(cred.Kind)}
		switch cred.Kind {
		case azure.KindSharedKey:
			out["account_name"] = cred.AccountName
			out["account_key"] = cred.AccountKey
		case azure.KindSharedAccessSignature:
			out["sas_token"] = cred.SASToken
		case azure.KindBearerToken:
			out["bearer_token"] = cred.BearerToken
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// newAzureConfig maps the CLI config onto the library config, applying the
// single-selector rule for user-assigned identities.
func newAzureConfig(cfg *config.AzureConfig) *azure.Config {
	out := azure.Config{
		AccountName: cfg.AccountName,
		AccountKey:  cfg.AccountKey,
		SASToken:    cfg.SASToken,
		Endpoint:    cfg.Endpoint,
		Secret:      cfg.Secret,
		Resource:    cfg.Resource,
	}

	switch {
	case cfg.ObjectID != "":
		out = out.WithObjectID(cfg.ObjectID)
	case cfg.ClientID != "":
		out = out.WithClientID(cfg.ClientID)
	case cfg.ResourceID != "":
		out = out.WithResourceID(cfg.ResourceID)
	}

	return &out
}

func init() {
	azureTokenCmd.Flags().BoolVar(&azureUseIMDS, "imds", false, "resolve via the managed identity endpoint")

	azureCmd.AddCommand(azureTokenCmd)
	rootCmd.AddCommand(azureCmd)
}
