package languagetranslator

import (
	"testing"

	"github.com/IBM/go-sdk-core/v5/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watson-developer-cloud/go-sdk/v2/languagetranslatorv3"

	"github.com/eugenenazirov/cloud-bindings/internal/binding"
	"github.com/eugenenazirov/cloud-bindings/internal/cloudenv"
	"github.com/eugenenazirov/cloud-bindings/internal/services/watson"
)

func TestGetServiceBuildsClient(t *testing.T) {
	env := cloudenv.Static{
		KeyUsername: "lt-user",
		KeyPassword: "lt-pass",
	}

	name, client, err := GetService(env, binding.Deps{})
	require.NoError(t, err)
	assert.Equal(t, "watson-language-translator", name)

	translator, ok := client.(*languagetranslatorv3.LanguageTranslatorV3)
	require.True(t, ok, "expected *languagetranslatorv3.LanguageTranslatorV3, got %T", client)
	require.NotNil(t, translator.Version)
	assert.Equal(t, DefaultVersion, *translator.Version)
	assert.Equal(t, languagetranslatorv3.DefaultServiceURL, translator.GetServiceURL())
	assert.Equal(t, "true", translator.Service.DefaultHeaders.Get(watson.LearningOptOutHeader))

	auth, ok := translator.Service.Options.Authenticator.(*core.BasicAuthenticator)
	require.True(t, ok)
	assert.Equal(t, "lt-user", auth.Username)
}

func TestGetServiceOverrides(t *testing.T) {
	env := cloudenv.Static{
		KeyUsername: "lt-user",
		KeyPassword: "lt-pass",
		KeyURL:      "https://api.eu-de.language-translator.watson.cloud.ibm.com",
		KeyVersion:  "2020-01-01",
	}

	client, err := New(env, binding.Deps{})
	require.NoError(t, err)
	assert.Equal(t, "2020-01-01", *client.Version)
	assert.Equal(t, "https://api.eu-de.language-translator.watson.cloud.ibm.com", client.GetServiceURL())
}

func TestGetServicePropagatesMissingKey(t *testing.T) {
	name, client, err := GetService(cloudenv.Static{KeyPassword: "lt-pass"}, binding.Deps{})
	require.ErrorIs(t, err, cloudenv.ErrKeyNotFound)
	assert.Equal(t, ServiceName, name)
	assert.Nil(t, client)
}
