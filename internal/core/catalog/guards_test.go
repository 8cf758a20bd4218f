package catalog

import (
	"testing"
)

func TestCanAddEdge(t *testing.T) {
	tests := []struct {
		name        string
		ctx         EdgeContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name: "product composed of modules",
			ctx: EdgeContext{
				ParentID:   "PRD-001",
				ParentKind: KindProduct,
				ChildID:    "MOD-001",
				ChildKind:  KindModule,
				QtyPer:     2,
			},
			wantAllowed: true,
			wantReason:  "",
		},
		{
			name: "module composed of parts",
			ctx: EdgeContext{
				ParentID:   "MOD-001",
				ParentKind: KindModule,
				ChildID:    "PRT-001",
				ChildKind:  KindPart,
				QtyPer:     4,
			},
			wantAllowed: true,
			wantReason:  "",
		},
		{
			name: "zero quantity rejected",
			ctx: EdgeContext{
				ParentID:   "PRD-001",
				ParentKind: KindProduct,
				ChildID:    "MOD-001",
				ChildKind:  KindModule,
				QtyPer:     0,
			},
			wantAllowed: false,
			wantReason:  "quantity per parent must be positive, got 0",
		},
		{
			name: "negative quantity rejected",
			ctx: EdgeContext{
				ParentID:   "MOD-001",
				ParentKind: KindModule,
				ChildID:    "PRT-001",
				ChildKind:  KindPart,
				QtyPer:     -3,
			},
			wantAllowed: false,
			wantReason:  "quantity per parent must be positive, got -3",
		},
		{
			name: "parts cannot have children",
			ctx: EdgeContext{
				ParentID:   "PRT-001",
				ParentKind: KindPart,
				ChildID:    "PRT-002",
				ChildKind:  KindPart,
				QtyPer:     1,
			},
			wantAllowed: false,
			wantReason:  "part items cannot have BOM children",
		},
		{
			name: "product cannot skip a level down to parts",
			ctx: EdgeContext{
				ParentID:   "PRD-001",
				ParentKind: KindProduct,
				ChildID:    "PRT-001",
				ChildKind:  KindPart,
				QtyPer:     1,
			},
			wantAllowed: false,
			wantReason:  "a product is composed of modules, not parts",
		},
		{
			name: "item cannot be its own component",
			ctx: EdgeContext{
				ParentID:   "MOD-001",
				ParentKind: KindModule,
				ChildID:    "MOD-001",
				ChildKind:  KindPart,
				QtyPer:     1,
			},
			wantAllowed: false,
			wantReason:  "item MOD-001 cannot be its own component",
		},
		{
			name: "duplicate edge rejected",
			ctx: EdgeContext{
				ParentID:   "PRD-001",
				ParentKind: KindProduct,
				ChildID:    "MOD-001",
				ChildKind:  KindModule,
				QtyPer:     2,
				EdgeExists: true,
			},
			wantAllowed: false,
			wantReason:  "BOM edge PRD-001 -> MOD-001 already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanAddEdge(tt.ctx)

			if result.Allowed != tt.wantAllowed {
				t.Errorf("CanAddEdge() Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}

			if result.Reason != tt.wantReason {
				t.Errorf("CanAddEdge() Reason = %q, want %q", result.Reason, tt.wantReason)
			}

			err := result.Error()
			if tt.wantAllowed && err != nil {
				t.Errorf("CanAddEdge().Error() = %v, want nil", err)
			}
			if !tt.wantAllowed && err == nil {
				t.Error("CanAddEdge().Error() = nil, want error")
			}
		})
	}
}
