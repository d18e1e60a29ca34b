package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
	if !m.IsIdentity() {
		t.Error("IsIdentity() = false for Identity()")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	id := Identity()
	result := m.Mul(id)

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)

	if got := m.Translation(); got != (Vec3{5, 10, 15}) {
		t.Errorf("Translation() = %v, want (5, 10, 15)", got)
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 2, 2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
		{"identity", Identity(), Vec3{4, 5, 6}, Vec3{4, 5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.p); got != tt.want {
				t.Errorf("TransformPoint: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComposeMatchesProduct(t *testing.T) {
	tr := Vec3{1, 2, 3}
	rot := QuatFromAxisAngle(Vec3{0, 1, 0}, 0.7).ToMat4()
	sc := Vec3{2, 3, 4}

	got := Compose(tr, rot, sc)
	want := Translate(tr.X, tr.Y, tr.Z).Mul(rot).Mul(Scale(sc.X, sc.Y, sc.Z))
	if !got.ApproxEqual(want, 1e-6) {
		t.Errorf("Compose = %v, want %v", got, want)
	}
}

func TestMulMatchesMathGL(t *testing.T) {
	a := Translate(1, 2, 3).Mul(QuatFromAxisAngle(Vec3{1, 0, 0}, 0.3).ToMat4())
	b := Scale(2, 0.5, 1).Mul(Translate(-4, 0, 2))

	got := a.Mul(b)
	want := mgl32.Mat4(a).Mul4(mgl32.Mat4(b))
	if !got.ApproxEqual(Mat4(want), 1e-5) {
		t.Errorf("Mul = %v, want %v", got, want)
	}
}

func TestInverseMatchesMathGL(t *testing.T) {
	m := Translate(3, -2, 5).
		Mul(QuatFromAxisAngle(Vec3{0, 0, 1}, 1.1).ToMat4()).
		Mul(Scale(2, 2, 2))

	got := m.Inverse()
	want := mgl32.Mat4(m).Inv()
	if !got.ApproxEqual(Mat4(want), 1e-5) {
		t.Errorf("Inverse = %v, want %v", got, want)
	}
	if !m.Mul(got).ApproxEqual(Identity(), 1e-5) {
		t.Error("M * M^-1 should be identity")
	}
}

func TestInverseSingular(t *testing.T) {
	if got := Scale(0, 1, 1).Inverse(); !got.IsIdentity() {
		t.Errorf("singular inverse should fall back to identity, got %v", got)
	}
}

func TestTranspose(t *testing.T) {
	m := Translate(1, 2, 3)
	tr := m.Transpose()
	if tr[3] != 1 || tr[7] != 2 || tr[11] != 3 {
		t.Errorf("Transpose moved translation to %v", tr)
	}
	if tr.Transpose() != m {
		t.Error("double transpose should be the original")
	}
}

func TestPerspectiveMatchesMathGL(t *testing.T) {
	fov := float32(math.Pi / 4)
	got := Perspective(fov, 1.5, 0.1, 100)
	want := mgl32.Perspective(fov, 1.5, 0.1, 100)
	if !got.ApproxEqual(Mat4(want), 1e-5) {
		t.Errorf("Perspective = %v, want %v", got, want)
	}
	if got[11] != -1 || got[15] != 0 {
		t.Errorf("Perspective w row: [11]=%f [15]=%f", got[11], got[15])
	}
}

func TestInfinitePerspectiveLimit(t *testing.T) {
	fov := float32(math.Pi / 3)
	inf := InfinitePerspective(fov, 1, 0.5)
	far := Perspective(fov, 1, 0.5, 1e7)
	if !inf.ApproxEqual(far, 1e-4) {
		t.Errorf("InfinitePerspective = %v, want ~%v", inf, far)
	}
}

func TestOrthoMatchesMathGL(t *testing.T) {
	got := Ortho(-10, 10, -5, 5, 0.1, 50)
	want := mgl32.Ortho(-10, 10, -5, 5, 0.1, 50)
	if !got.ApproxEqual(Mat4(want), 1e-6) {
		t.Errorf("Ortho = %v, want %v", got, want)
	}
}

func TestFromSlice(t *testing.T) {
	v := []float32{
		1, 2, 3, 0,
		4, 5, 6, 0,
		7, 8, 9, 0,
		10, 11, 12, 1,
	}
	m := FromSlice(v)
	if m.Column(1) != (Vec4{4, 5, 6, 0}) {
		t.Errorf("FromSlice column 1 = %v", m.Column(1))
	}
	if m.Translation() != (Vec3{10, 11, 12}) {
		t.Errorf("FromSlice translation = %v", m.Translation())
	}
	if FromSlice(nil) != Identity() {
		t.Error("FromSlice(nil) should be identity")
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(100, 100, 100)
	if got := m.TransformDirection(Vec3{0, 0, -1}); got != (Vec3{0, 0, -1}) {
		t.Errorf("TransformDirection = %v", got)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
