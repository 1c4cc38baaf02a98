package meshtile

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

const JPEG_QUALITY = 90

// Image 纹理像素缓冲, 行按自上而下存储
type Image struct {
	Width    int
	Height   int
	Channels int
	Data     []byte
}

func NewImage(w, h, channels int) *Image {
	return &Image{Width: w, Height: h, Channels: channels, Data: make([]byte, w*h*channels)}
}

func (im *Image) Free() {
	im.Data = nil
}

// Crop 裁剪纹理空间(自下而上)的像素矩形 [minX,maxX) x [minY,maxY)
func (im *Image) Crop(minX, minY, maxX, maxY int) (*Image, error) {
	if minX < 0 || minY < 0 || maxX > im.Width || maxY > im.Height || minX >= maxX || minY >= maxY {
		return nil, fmt.Errorf("crop rect (%d,%d)-(%d,%d) outside %dx%d", minX, minY, maxX, maxY, im.Width, im.Height)
	}
	tw, th := maxX-minX, maxY-minY
	out := NewImage(tw, th, im.Channels)
	rowLen := tw * im.Channels
	for r := 0; r < th; r++ {
		src := ((im.Height-maxY+r)*im.Width + minX) * im.Channels
		copy(out.Data[r*rowLen:(r+1)*rowLen], im.Data[src:src+rowLen])
	}
	return out, nil
}

// Downscale 按整数倍缩小, 尺寸至少为1
func (im *Image) Downscale(factor int) *Image {
	if factor <= 1 {
		return &Image{Width: im.Width, Height: im.Height, Channels: im.Channels, Data: append([]byte(nil), im.Data...)}
	}
	w := im.Width / factor
	if w < 1 {
		w = 1
	}
	h := im.Height / factor
	if h < 1 {
		h = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	src := im.ToImage()
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return ImageFromImage(dst, im.Channels)
}

// ToImage 转换为标准库图像
func (im *Image) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	sz := im.Channels
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			p := (y*im.Width + x) * sz
			var c color.NRGBA
			switch sz {
			case TEXTURE_CHANNELS_RGBA:
				c = color.NRGBA{R: im.Data[p], G: im.Data[p+1], B: im.Data[p+2], A: im.Data[p+3]}
			case TEXTURE_CHANNELS_RGB:
				c = color.NRGBA{R: im.Data[p], G: im.Data[p+1], B: im.Data[p+2], A: 255}
			default:
				c = color.NRGBA{R: im.Data[p], G: im.Data[p], B: im.Data[p], A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// ImageFromImage 从标准库图像创建像素缓冲
func ImageFromImage(img image.Image, channels int) *Image {
	bd := img.Bounds()
	out := NewImage(bd.Dx(), bd.Dy(), channels)
	p := 0
	for y := bd.Min.Y; y < bd.Max.Y; y++ {
		for x := bd.Min.X; x < bd.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			switch channels {
			case TEXTURE_CHANNELS_RGBA:
				out.Data[p], out.Data[p+1], out.Data[p+2], out.Data[p+3] = c.R, c.G, c.B, c.A
			case TEXTURE_CHANNELS_RGB:
				out.Data[p], out.Data[p+1], out.Data[p+2] = c.R, c.G, c.B
			default:
				out.Data[p] = c.R
			}
			p += channels
		}
	}
	return out
}

// DecodeImage 解码 jpeg/png/gif/bmp/tiff/tga, 不透明图像保留3通道
func DecodeImage(rd io.Reader) (*Image, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	img, err := readImage(bytes.NewReader(data), sniffFormat(data))
	if err != nil {
		return nil, err
	}
	channels := TEXTURE_CHANNELS_RGB
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		channels = TEXTURE_CHANNELS_RGBA
	}
	return ImageFromImage(img, channels), nil
}

// sniffFormat 按文件头识别格式, tga没有文件头
func sniffFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\xff\xd8")):
		return "jpeg"
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "png"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "gif"
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return "tiff"
	default:
		return "tga"
	}
}

func readImage(rd io.Reader, ft string) (image.Image, error) {
	switch ft {
	case "jpeg", "jpg":
		return jpeg.Decode(rd)
	case "tga":
		return tga.Decode(rd)
	case "png":
		return png.Decode(rd)
	case "gif":
		return gif.Decode(rd)
	case "bmp":
		return bmp.Decode(rd)
	case "tif", "tiff":
		return tiff.Decode(rd)
	default:
		return nil, errors.New("unknow format")
	}
}

func LoadImage(name string) (*Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeImage(f)
}

// Encode 带透明通道编码为png, 否则jpeg, 返回mime类型
func (im *Image) Encode(w io.Writer) (string, error) {
	img := im.ToImage()
	if im.Channels == TEXTURE_CHANNELS_RGBA {
		return "image/png", png.Encode(w, img)
	}
	return "image/jpeg", jpeg.Encode(w, img, &jpeg.Options{Quality: JPEG_QUALITY})
}
