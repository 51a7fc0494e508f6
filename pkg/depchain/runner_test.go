package depchain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depchain/pkg/depchain"
	"github.com/Sumatoshi-tech/depchain/pkg/syntax"
	"github.com/Sumatoshi-tech/depchain/pkg/workspace"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want depchain.ErrorClass
	}{
		{name: "nil", err: nil, want: depchain.ClassNone},
		{name: "validation", err: &depchain.ValidationError{Package: "foo"}, want: depchain.ClassValidation},
		{
			name: "wrapped parse",
			err:  fmt.Errorf("extract: %w", &syntax.ParseError{Path: "a.ts", Line: 1, Column: 1, Message: "syntax error"}),
			want: depchain.ClassParse,
		},
		{name: "area", err: fmt.Errorf("%w: web", depchain.ErrUnknownArea), want: depchain.ClassConfig},
		{name: "manifest", err: fmt.Errorf("%w: x", workspace.ErrInvalidManifest), want: depchain.ClassConfig},
		{name: "other", err: errors.New("disk on fire"), want: depchain.ClassInternal},
		{name: "canceled", err: context.Canceled, want: depchain.ClassInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, depchain.ClassifyError(tt.err))
		})
	}
}

func TestRunWorkspace_IsolatesPackages(t *testing.T) {
	t.Parallel()

	clean := writePackage(t, "clean", map[string]string{"react": "18"}, map[string]string{
		"src/index.tsx": "import React from 'react';\n",
	})
	broken := writePackage(t, "broken", nil, map[string]string{
		"src/index.ts": "import lodash from 'lodash';\n",
	})
	warned := writePackage(t, "warned", nil, map[string]string{
		"src/index.ts": "import type { T } from 'types';\n",
	})
	unparsable := writePackage(t, "unparsable", nil, map[string]string{
		"src/index.ts": "export const = ;\n",
	})
	skipped := &fakePackage{name: "expo", root: t.TempDir()}

	pkgs := []depchain.Package{clean, broken, warned, unparsable, skipped}

	outcomes := depchain.RunWorkspace(context.Background(), newValidator(t), pkgs, nil, 2)
	require.Len(t, outcomes, len(pkgs))

	statuses := make(map[string]string)
	for i := range outcomes {
		assert.Equal(t, pkgs[i].PackageName(), outcomes[i].Package, "outcomes keep input order")
		statuses[outcomes[i].Package] = outcomes[i].Status
	}

	assert.Equal(t, map[string]string{
		"clean":      depchain.StatusClean,
		"broken":     depchain.StatusInvalid,
		"warned":     depchain.StatusWarning,
		"unparsable": depchain.StatusError,
		"expo":       depchain.StatusSkipped,
	}, statuses)

	assert.False(t, outcomes[0].Failed())
	assert.True(t, outcomes[1].Failed())
	assert.Equal(t, "broken has invalid dependency chains.", outcomes[1].Message)
	assert.Len(t, outcomes[1].Invalid(), 1)
	assert.Equal(t, 1, outcomes[0].Files())

	assert.Equal(t, map[depchain.ErrorClass]int{
		depchain.ClassValidation: 1,
		depchain.ClassParse:      1,
	}, depchain.Failures(outcomes))
}

func TestRunWorkspace_StopsPackageAtFirstFailingArea(t *testing.T) {
	t.Parallel()

	pkg := writePackage(t, "foo", nil, map[string]string{
		"src/index.ts":     "import 'undeclared';\n",
		"cli/src/index.ts": "import 'also-undeclared';\n",
	})

	outcomes := depchain.RunWorkspace(context.Background(), newValidator(t), depchain.Packages([]*workspace.Package{pkg}),
		[]depchain.Area{depchain.AreaPackage, depchain.AreaCLI}, 0)

	require.Len(t, outcomes, 1)
	require.Len(t, outcomes[0].Results, 1)
	assert.Equal(t, depchain.AreaPackage, outcomes[0].Results[0].Area)
	assert.Equal(t, depchain.ClassValidation, outcomes[0].Class)
}

func TestRunWorkspace_AllAreas(t *testing.T) {
	t.Parallel()

	pkg := writePackage(t, "foo", map[string]string{"bar": "1"}, map[string]string{
		"src/index.ts":       "import 'bar';\n",
		"utils/src/index.ts": "import type { X } from 'utility-types';\n",
	})

	outcomes := depchain.RunWorkspace(context.Background(), newValidator(t), depchain.Packages([]*workspace.Package{pkg}),
		depchain.Areas(), 1)

	require.Len(t, outcomes, 1)
	assert.Len(t, outcomes[0].Results, 4)
	assert.Equal(t, depchain.StatusWarning, outcomes[0].Status)
	assert.False(t, outcomes[0].Failed())
}
