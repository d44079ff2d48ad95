package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/domain/types"
)

func TestOrchestrationTool(t *testing.T) {
	t.Run("all values are valid and unique", func(t *testing.T) {
		all := types.AllOrchestrationTools()
		gt.A(t, all).Length(34)

		seen := make(map[types.OrchestrationTool]bool)
		for _, v := range all {
			gt.Bool(t, v.IsValid()).True()
			gt.Bool(t, seen[v]).False()
			seen[v] = true
		}
	})

	t.Run("parse known value", func(t *testing.T) {
		v, err := types.ParseOrchestrationTool("Airflow (Astronomer)")
		gt.NoError(t, err).Required()
		gt.Value(t, v).Equal(types.OrchestrationToolAirflowAstronomer)
	})

	t.Run("parse is case sensitive", func(t *testing.T) {
		_, err := types.ParseOrchestrationTool("dagster")
		gt.Error(t, err)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		all := types.AllOrchestrationTools()
		all[0] = "mutated"
		gt.Value(t, types.AllOrchestrationTools()[0]).Equal(types.OrchestrationToolDagster)
	})
}

func TestCloudProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    types.CloudProvider
		wantErr bool
	}{
		{input: "AWS", want: types.CloudProviderAWS},
		{input: "Azure", want: types.CloudProviderAzure},
		{input: "GCP", want: types.CloudProviderGCP},
		{input: "OCI", want: types.CloudProviderOCI},
		{input: "On-Prem", want: types.CloudProviderOnPrem},
		{input: "aws", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := types.ParseCloudProvider(tc.input)
			if tc.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tc.want)
		})
	}
}

func TestAttributeKind(t *testing.T) {
	for _, k := range types.AllAttributeKinds() {
		parsed, err := types.ParseAttributeKind(k.String())
		gt.NoError(t, err).Required()
		gt.Value(t, parsed).Equal(k)
	}

	_, err := types.ParseAttributeKind("float")
	gt.Error(t, err)
}
