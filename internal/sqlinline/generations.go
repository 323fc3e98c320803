package sqlinline

const QCreateGenerationsTable = `--sql 6d0f3b8e-1c52-4a7e-b0d9-3f4e5a6b7c8d
create table if not exists generations (
  id          uuid primary key,
  job_id      text not null default '',
  prompt      text not null,
  status      text not null default '',
  image_url   text not null default '',
  error_code  text not null default '',
  error       text not null default '',
  duration_ms bigint not null default 0,
  created_at  timestamptz not null default now()
);
create index if not exists generations_created_at_idx on generations (created_at desc);
`

const QInsertGeneration = `--sql 2f9e7a41-8b3c-4d5e-a6f7-0b1c2d3e4f50
insert into generations (id, job_id, prompt, status, image_url, error_code, error, duration_ms, created_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`

const QSelectRecentGenerations = `--sql 9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d
select id::text, job_id, prompt, status, image_url, error_code, error, duration_ms, created_at
from generations
order by created_at desc
limit $1;
`

const QSelectGenerationByID = `--sql 4c3b2a19-0f8e-4d7c-9b6a-5f4e3d2c1b0a
select id::text, job_id, prompt, status, image_url, error_code, error, duration_ms, created_at
from generations
where id = $1;
`
