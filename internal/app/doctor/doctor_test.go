package doctor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/devrig/internal/action"
	"github.com/slok/devrig/internal/app/doctor"
	"github.com/slok/devrig/internal/model"
	"github.com/slok/devrig/internal/registry"
	"github.com/slok/devrig/internal/verify"
)

func TestServiceDoctor(t *testing.T) {
	installCalled := false

	reg, err := registry.New(
		registry.Step{
			ID: "satisfied",
			Install: action.InstallerFunc(func(_ context.Context) error {
				installCalled = true
				return nil
			}),
			Check: action.CheckerFunc(func(_ context.Context) (bool, string, error) { return true, "v1.0", nil }),
		},
		registry.Step{
			ID: "unsatisfied",
			Install: action.InstallerFunc(func(_ context.Context) error {
				installCalled = true
				return nil
			}),
			Check: action.CheckerFunc(func(_ context.Context) (bool, string, error) { return false, "not found", nil }),
		},
	)
	require.NoError(t, err)

	verifier, err := verify.NewVerifier(verify.VerifierConfig{})
	require.NoError(t, err)
	svc, err := doctor.NewService(doctor.ServiceConfig{Verifier: verifier})
	require.NoError(t, err)

	report, err := svc.Doctor(context.Background(), doctor.DoctorOptions{Registry: reg})
	require.NoError(t, err)

	// Verification never mutates the host.
	assert.False(t, installCalled)

	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].Satisfied)
	assert.False(t, report.Results[1].Satisfied)
	assert.False(t, report.AllSatisfied())
}

func TestServiceDoctorMissingRegistry(t *testing.T) {
	verifier, err := verify.NewVerifier(verify.VerifierConfig{})
	require.NoError(t, err)
	svc, err := doctor.NewService(doctor.ServiceConfig{Verifier: verifier})
	require.NoError(t, err)

	_, err = svc.Doctor(context.Background(), doctor.DoctorOptions{})
	assert.ErrorIs(t, err, model.ErrNotValid)
}

type errVerifier struct{}

func (errVerifier) Verify(_ context.Context, _ *registry.Registry) (*model.VerificationReport, error) {
	return nil, fmt.Errorf("boom")
}

func TestServiceDoctorVerifierFailure(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)

	svc, err := doctor.NewService(doctor.ServiceConfig{Verifier: errVerifier{}})
	require.NoError(t, err)

	_, err = svc.Doctor(context.Background(), doctor.DoctorOptions{Registry: reg})
	assert.Error(t, err)
}
