package filters

// GLSL ES sources for the external-OES camera texture. Compilation is the
// render backend's job; these are only the program texts.

// VertexShader is shared by every filter. uMVPMatrix receives
// viewport.Result.MVP.
const VertexShader = `uniform mat4 uMVPMatrix;
uniform mat4 uTexMatrix;
attribute highp vec4 aPosition;
attribute highp vec4 aTextureCoord;
varying highp vec2 textureCoordinate;

void main()
{
  gl_Position = uMVPMatrix * aPosition;
  textureCoordinate = (uTexMatrix * aTextureCoord).xy;
}
`

const identityFragmentShader = `#extension GL_OES_EGL_image_external : require
precision mediump float;

varying highp vec2 textureCoordinate;

uniform samplerExternalOES inputImageTexture;

void main()
{
  gl_FragColor = texture2D(inputImageTexture, textureCoordinate);
}
`

const grayscaleFragmentShader = `#extension GL_OES_EGL_image_external : require
precision highp float;

varying vec2 textureCoordinate;

uniform samplerExternalOES inputImageTexture;

const highp vec3 W = vec3(0.2125, 0.7154, 0.0721);

void main()
{
  lowp vec4 textureColor = texture2D(inputImageTexture, textureCoordinate);
  float luminance = dot(textureColor.rgb, W);

  gl_FragColor = vec4(vec3(luminance), textureColor.a);
}
`

const invertFragmentShader = `#extension GL_OES_EGL_image_external : require
precision mediump float;

varying highp vec2 textureCoordinate;

uniform samplerExternalOES inputImageTexture;

void main()
{
  lowp vec4 textureColor = texture2D(inputImageTexture, textureCoordinate);

  gl_FragColor = vec4((1.0 - textureColor.rgb), textureColor.a);
}
`

const sepiaFragmentShader = `#extension GL_OES_EGL_image_external : require
precision mediump float;

varying highp vec2 textureCoordinate;

uniform samplerExternalOES inputImageTexture;

const lowp mat4 colorMatrix = mat4(
  0.3588, 0.2990, 0.2392, 0.0,
  0.7044, 0.5870, 0.4696, 0.0,
  0.1368, 0.1140, 0.0912, 0.0,
  0.0,    0.0,    0.0,    1.0);

void main()
{
  lowp vec4 textureColor = texture2D(inputImageTexture, textureCoordinate);

  gl_FragColor = colorMatrix * textureColor;
}
`
