package render

// WGSL shader sources for the per-kind render pipelines. Each drawable kind
// compiles exactly one program, created once by Context.InitPipelines.
//
// Points, cuboid edges, and ring vertices are generated from builtin indices
// (vertex pulling) so no vertex buffer layouts are required; all per-point
// data lives in storage buffers and textures.

// cloudShaderCode renders a point cloud. Each point is expanded into a
// screen-aligned quad of two triangles (six vertices) sized by point_size,
// since WebGPU point primitives are a single pixel.
//
// The per-column poses are stored as a width x 4 texture: the four texels down
// column v hold the three rotation columns and the translation of the vth
// pose, fetched exactly with textureLoad.
const cloudShaderCode = `
struct CloudUniform {
    model: mat4x4<f32>,
    proj_view: mat4x4<f32>,
    viewport: vec2<f32>,
    point_size: f32,
    width: u32,
};

@group(0) @binding(0) var<uniform> u: CloudUniform;
@group(0) @binding(1) var<storage, read> xyz: array<f32>;
@group(0) @binding(2) var<storage, read> offset: array<f32>;
@group(0) @binding(3) var<storage, read> range_data: array<f32>;
@group(0) @binding(4) var<storage, read> key_data: array<f32>;
@group(0) @binding(5) var<storage, read> mask_data: array<f32>;
@group(0) @binding(6) var transformation: texture_2d<f32>;
@group(0) @binding(7) var palette: texture_2d<f32>;
@group(0) @binding(8) var palette_sampler: sampler;

struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) vcolor: f32,
    @location(1) overlay_rgba: vec4<f32>,
};

const corners = array<vec2<f32>, 6>(
    vec2<f32>(-1.0, -1.0), vec2<f32>(1.0, -1.0), vec2<f32>(1.0, 1.0),
    vec2<f32>(-1.0, -1.0), vec2<f32>(1.0, 1.0), vec2<f32>(-1.0, 1.0),
);

@vertex
fn vs_main(@builtin(vertex_index) vi: u32) -> VertexOut {
    let i = vi / 6u;
    let corner = corners[vi % 6u];

    let r = range_data[i];
    let p = vec3<f32>(xyz[3u * i], xyz[3u * i + 1u], xyz[3u * i + 2u]);
    let o = vec3<f32>(offset[3u * i], offset[3u * i + 1u], offset[3u * i + 2u]);
    var local_point = vec4<f32>(0.0, 0.0, 0.0, 1.0);
    if (r > 0.0) {
        local_point = u.model * vec4<f32>(p * r + o, 1.0);
    }

    // Fetch the four columns of the per-column pose for this point.
    let col = i32(i % u.width);
    let r0 = textureLoad(transformation, vec2<i32>(col, 0), 0);
    let r1 = textureLoad(transformation, vec2<i32>(col, 1), 0);
    let r2 = textureLoad(transformation, vec2<i32>(col, 2), 0);
    let t = textureLoad(transformation, vec2<i32>(col, 3), 0);
    let column_pose = mat4x4<f32>(
        vec4<f32>(r0.xyz, 0.0),
        vec4<f32>(r1.xyz, 0.0),
        vec4<f32>(r2.xyz, 0.0),
        vec4<f32>(t.xyz, 1.0),
    );

    var clip = u.proj_view * column_pose * local_point;
    // Expand the quad in clip space so the point covers point_size pixels.
    clip = vec4<f32>(clip.xy + corner * u.point_size / u.viewport * clip.w, clip.zw);

    var out: VertexOut;
    out.position = clip;
    out.vcolor = sqrt(key_data[i]);
    out.overlay_rgba = vec4<f32>(
        mask_data[4u * i], mask_data[4u * i + 1u],
        mask_data[4u * i + 2u], mask_data[4u * i + 3u],
    );
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    let base = textureSampleLevel(palette, palette_sampler, vec2<f32>(in.vcolor, 0.5), 0.0).xyz;
    let a = in.overlay_rgba.w;
    return vec4<f32>(base * (1.0 - a) + in.overlay_rgba.xyz * a, 1.0);
}
`

// imageShaderCode renders a screen-space monochrome image with an RGBA mask
// overlay. The quad corners come from the uniform rectangle; x is divided by
// the viewport aspect so the image scales with the window while keeping its
// shape.
const imageShaderCode = `
struct ImageUniform {
    // x0, x1, y0, y1 of the screen-space rectangle.
    rect: vec4<f32>,
    aspect: f32,
};

@group(0) @binding(0) var<uniform> u: ImageUniform;
@group(0) @binding(1) var image_tex: texture_2d<f32>;
@group(0) @binding(2) var mask_tex: texture_2d<f32>;
@group(0) @binding(3) var image_sampler: sampler;

struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

const uvs = array<vec2<f32>, 6>(
    vec2<f32>(0.0, 0.0), vec2<f32>(0.0, 1.0), vec2<f32>(1.0, 1.0),
    vec2<f32>(0.0, 0.0), vec2<f32>(1.0, 1.0), vec2<f32>(1.0, 0.0),
);

@vertex
fn vs_main(@builtin(vertex_index) vi: u32) -> VertexOut {
    let uv = uvs[vi];
    let x = mix(u.rect.x, u.rect.y, uv.x) / u.aspect;
    let y = mix(u.rect.z, u.rect.w, uv.y);

    var out: VertexOut;
    out.position = vec4<f32>(x, y, 0.0, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    let m = textureSampleLevel(mask_tex, image_sampler, in.uv, 0.0);
    let a = m.a;
    let r = sqrt(textureSampleLevel(image_tex, image_sampler, in.uv, 0.0).r) * (1.0 - a);
    return vec4<f32>(vec3<f32>(r, r, r) + m.rgb * a, 1.0);
}
`

// cuboidShaderCode renders a cuboid as the twelve edges of a unit cube,
// transformed by the cuboid pose baked into proj_view.
const cuboidShaderCode = `
struct CuboidUniform {
    proj_view: mat4x4<f32>,
    rgba: vec4<f32>,
};

@group(0) @binding(0) var<uniform> u: CuboidUniform;

const cube = array<vec3<f32>, 8>(
    vec3<f32>(-0.5, -0.5, -0.5), vec3<f32>(0.5, -0.5, -0.5),
    vec3<f32>(0.5, 0.5, -0.5), vec3<f32>(-0.5, 0.5, -0.5),
    vec3<f32>(-0.5, -0.5, 0.5), vec3<f32>(0.5, -0.5, 0.5),
    vec3<f32>(0.5, 0.5, 0.5), vec3<f32>(-0.5, 0.5, 0.5),
);

const edges = array<u32, 24>(
    0u, 1u, 1u, 2u, 2u, 3u, 3u, 0u,
    4u, 5u, 5u, 6u, 6u, 7u, 7u, 4u,
    0u, 4u, 1u, 5u, 2u, 6u, 3u, 7u,
);

@vertex
fn vs_main(@builtin(vertex_index) vi: u32) -> @builtin(position) vec4<f32> {
    return u.proj_view * vec4<f32>(cube[edges[vi]], 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u.rgba;
}
`

// ringsShaderCode renders concentric distance rings around the camera target
// as instanced line strips: instance k is the circle of radius spacing*(k+1),
// with vertices generated from the vertex index.
const ringsShaderCode = `
struct RingsUniform {
    proj_view: mat4x4<f32>,
    spacing: f32,
    segments: u32,
};

@group(0) @binding(0) var<uniform> u: RingsUniform;

const tau = 6.28318530718;

@vertex
fn vs_main(
    @builtin(vertex_index) vi: u32,
    @builtin(instance_index) ring: u32,
) -> @builtin(position) vec4<f32> {
    let theta = tau * f32(vi % u.segments) / f32(u.segments);
    let radius = u.spacing * f32(ring + 1u);
    let p = vec3<f32>(cos(theta) * radius, sin(theta) * radius, 0.0);
    var clip = u.proj_view * vec4<f32>(p, 1.0);
    // Pin rings to the far plane so they never occlude scene content.
    clip.z = clip.w;
    return clip;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.15, 0.15, 0.15, 1.0);
}
`

// labelShaderCode renders a rasterized text quad, either anchored at a 2D
// screen position in [0, 1] or billboarded at a projected 3D point.
const labelShaderCode = `
struct LabelUniform {
    proj_view: mat4x4<f32>,
    // xyz anchor; w is 1 for a 3D anchor, 0 for a 2D anchor.
    anchor: vec4<f32>,
    // Text quad extent in NDC units: (width, height) already scaled.
    extent: vec2<f32>,
    align_right: f32,
};

@group(0) @binding(0) var<uniform> u: LabelUniform;
@group(0) @binding(1) var text_tex: texture_2d<f32>;
@group(0) @binding(2) var text_sampler: sampler;

struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

const uvs = array<vec2<f32>, 6>(
    vec2<f32>(0.0, 1.0), vec2<f32>(1.0, 1.0), vec2<f32>(1.0, 0.0),
    vec2<f32>(0.0, 1.0), vec2<f32>(1.0, 0.0), vec2<f32>(0.0, 0.0),
);

@vertex
fn vs_main(@builtin(vertex_index) vi: u32) -> VertexOut {
    let uv = uvs[vi];
    // Text extends rightward and downward from its anchor.
    var corner = vec2<f32>(uv.x, -uv.y) * u.extent;
    corner.x = corner.x - u.align_right * u.extent.x;

    var clip: vec4<f32>;
    if (u.anchor.w > 0.5) {
        clip = u.proj_view * vec4<f32>(u.anchor.xyz, 1.0);
        clip = vec4<f32>(clip.xy + corner * clip.w, clip.zw);
    } else {
        let base = vec2<f32>(u.anchor.x * 2.0 - 1.0, 1.0 - u.anchor.y * 2.0);
        clip = vec4<f32>(base + corner, 0.0, 1.0);
    }

    var out: VertexOut;
    out.position = clip;
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    let texel = textureSampleLevel(text_tex, text_sampler, in.uv, 0.0);
    if (texel.a < 0.004) {
        discard;
    }
    return texel;
}
`
