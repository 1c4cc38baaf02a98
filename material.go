package meshtile

import "fmt"

// Material 材质, 漫反射纹理可在多个网格间共享
type Material struct {
	Name       string     `json:"name"`
	DiffuseMap string     `json:"diffuseMap,omitempty"`
	Color      [4]float32 `json:"color"`
	Repeated   bool       `json:"repeated"`
	Image      *Image     `json:"-"`
}

func NewMaterial(name string) *Material {
	return &Material{Name: name, Color: [4]float32{1, 1, 1, 1}}
}

func (m *Material) HasTexture() bool {
	return m.Image != nil && len(m.Image.Data) > 0
}

// Clone 浅拷贝, 纹理像素仍共享
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// derive 以编号派生独立材质, 漫反射贴图名随之改变
func (m *Material) derive(index int, img *Image) *Material {
	c := m.Clone()
	c.Name = fmt.Sprintf("%s_%d", m.Name, index)
	c.DiffuseMap = c.Name + DIFFUSE_EXT
	c.Image = img
	return c
}
